package blockchain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMerkleTreeSingleLeaf(t *testing.T) {
	tree := NewMerkleTree([][]byte{[]byte("only")})
	require.NotNil(t, tree.RootNode)
	require.Len(t, tree.RootNode.Data, 32)
}

func TestMerkleTreeOddLeafCountDuplicatesLast(t *testing.T) {
	even := NewMerkleTree([][]byte{[]byte("a"), []byte("b"), []byte("c"), []byte("c")})
	odd := NewMerkleTree([][]byte{[]byte("a"), []byte("b"), []byte("c")})

	require.Equal(t, even.RootNode.Data, odd.RootNode.Data)
}

func TestMerkleTreeIsOrderSensitive(t *testing.T) {
	first := NewMerkleTree([][]byte{[]byte("a"), []byte("b")})
	second := NewMerkleTree([][]byte{[]byte("b"), []byte("a")})

	require.NotEqual(t, first.RootNode.Data, second.RootNode.Data)
}
