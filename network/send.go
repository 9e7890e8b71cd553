package network

import (
	"bytes"
	"io"
	"net"

	"github.com/ledgerlite/ledgerlite/blockchain"
	"github.com/ledgerlite/ledgerlite/chainerr"
)

// SendTxTo dials addr directly and relays tx, for the CLI's `send`
// command when the caller isn't itself a running Server — e.g. a
// wallet owner broadcasting a transaction to the seed node.
func SendTxTo(addr string, tx *blockchain.Transaction) error {
	data, err := tx.Serialize()
	if err != nil {
		return err
	}
	payload, err := gobEncode(txMsg{AddrFrom: addr, Transaction: data})
	if err != nil {
		return err
	}

	conn, err := net.Dial(protocol, addr)
	if err != nil {
		return chainerr.New(chainerr.KindNetwork, "network.SendTxTo", err)
	}
	defer conn.Close()

	if _, err := io.Copy(conn, bytes.NewReader(frame(cmdTx, payload))); err != nil {
		return chainerr.New(chainerr.KindNetwork, "network.SendTxTo", err)
	}
	return nil
}

// sendData dials addr and writes data, dropping addr from the known
// peer set if the dial fails — the only place a dead peer is evicted.
func (s *Server) sendData(addr string, data []byte) {
	conn, err := net.Dial(protocol, addr)
	if err != nil {
		log.WithField("peer", addr).Debug("peer unreachable, forgetting it")
		s.removeKnownNode(addr)
		return
	}
	defer conn.Close()

	if _, err := io.Copy(conn, bytes.NewReader(data)); err != nil {
		log.WithError(err).WithField("peer", addr).Warn("send failed")
	}
}

func (s *Server) sendVersion(addr string) error {
	bestHeight, err := s.chain.GetBestHeight()
	if err != nil {
		return err
	}
	payload, err := gobEncode(versionMsg{Version: s.cfg.Version, BestHeight: bestHeight, AddrFrom: s.self})
	if err != nil {
		return err
	}
	s.sendData(addr, frame(cmdVersion, payload))
	return nil
}

func (s *Server) sendAddr(addr string) error {
	payload, err := gobEncode(addrMsg{AddrList: append(s.peerList(), s.self)})
	if err != nil {
		return err
	}
	s.sendData(addr, frame(cmdAddr, payload))
	return nil
}

func (s *Server) sendBlock(addr string, b *blockchain.Block) error {
	data, err := b.Serialize()
	if err != nil {
		return err
	}
	payload, err := gobEncode(blockMsg{AddrFrom: s.self, Block: data})
	if err != nil {
		return err
	}
	s.sendData(addr, frame(cmdBlock, payload))
	return nil
}

func (s *Server) sendGetBlocks(addr string) error {
	payload, err := gobEncode(getBlocksMsg{AddrFrom: s.self})
	if err != nil {
		return err
	}
	s.sendData(addr, frame(cmdGetBlocks, payload))
	return nil
}

func (s *Server) sendGetData(addr, kind, id string) error {
	payload, err := gobEncode(getDataMsg{AddrFrom: s.self, Kind: kind, ID: id})
	if err != nil {
		return err
	}
	s.sendData(addr, frame(cmdGetData, payload))
	return nil
}

func (s *Server) sendInv(addr, kind string, items []string) error {
	payload, err := gobEncode(invMsg{AddrFrom: s.self, Kind: kind, Items: items})
	if err != nil {
		return err
	}
	s.sendData(addr, frame(cmdInv, payload))
	return nil
}

func (s *Server) sendTx(addr string, tx *blockchain.Transaction) error {
	data, err := tx.Serialize()
	if err != nil {
		return err
	}
	payload, err := gobEncode(txMsg{AddrFrom: s.self, Transaction: data})
	if err != nil {
		return err
	}
	s.sendData(addr, frame(cmdTx, payload))
	return nil
}

// requestBlocks asks every known peer for its hash inventory, the
// first step of a fresh node's sync per spec.md §8 scenario 4.
func (s *Server) requestBlocks() {
	for _, peer := range s.peerList() {
		s.sendGetBlocks(peer)
	}
}
