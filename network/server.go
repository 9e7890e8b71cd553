package network

import (
	"fmt"
	"net"
	"os"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/vrecan/death/v3"

	"github.com/ledgerlite/ledgerlite/blockchain"
	"github.com/ledgerlite/ledgerlite/chainerr"
	"github.com/ledgerlite/ledgerlite/config"
	"github.com/ledgerlite/ledgerlite/logging"
)

const protocol = "tcp"

var log = logging.For("network")

// Server is one gossip node: a chain, a UTXO index, and the mutable
// peer/mempool state every connection handler goroutine touches.
// Per spec.md §5, a single mutex guards this state and is never held
// across network I/O — handlers copy what they need out, release the
// lock, then dial or write.
type Server struct {
	cfg  *config.Config
	self string // this node's dial address, e.g. "localhost:3000"
	mine string // reward address if this node mines; empty otherwise

	chain *blockchain.Blockchain
	utxo  *blockchain.UTXOSet

	mu              sync.Mutex
	knownNodes      map[string]struct{}
	blocksInTransit []string
	mempool         map[string]*blockchain.Transaction
}

// NewServer wires a Server listening on port, around an already-opened
// chain for nodeID. port only determines the dial address; nodeID (the
// NODE_ID the chain was opened with) keys the UTXO store, so the
// server reindexes into the same directory getbalance/send later read
// from. mineAddress may be empty for a relay-only node.
func NewServer(cfg *config.Config, port, nodeID, mineAddress string, chain *blockchain.Blockchain) *Server {
	self := fmt.Sprintf("localhost:%s", port)
	known := map[string]struct{}{cfg.KnownNode1: {}}

	return &Server{
		cfg:        cfg,
		self:       self,
		mine:       mineAddress,
		chain:      chain,
		utxo:       blockchain.NewUTXOSet(cfg, nodeID, chain),
		knownNodes: known,
		mempool:    make(map[string]*blockchain.Transaction),
	}
}

// Start listens on s.self, registers a graceful shutdown handler, and
// blocks accepting connections until the process is signalled to stop.
func (s *Server) Start() error {
	ln, err := net.Listen(protocol, s.self)
	if err != nil {
		return chainerr.New(chainerr.KindNetwork, "Server.Start", err)
	}
	defer ln.Close()

	go s.awaitShutdown()

	bestHeight, err := s.chain.GetBestHeight()
	if err != nil {
		return err
	}

	if s.self == s.cfg.KnownNode1 {
		log.WithField("addr", s.self).Info("listening as seed node")
	} else {
		// Give the listener a moment to come up before we dial out.
		time.Sleep(time.Second)
		if bestHeight == -1 {
			s.sendGetBlocks(s.cfg.KnownNode1)
		} else {
			s.sendVersion(s.cfg.KnownNode1)
		}
	}

	for {
		conn, err := ln.Accept()
		if err != nil {
			log.WithError(err).Warn("accept failed")
			continue
		}
		go s.handleConnection(conn)
	}
}

func (s *Server) awaitShutdown() {
	d := death.NewDeath(syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	d.WaitForDeathWithFunc(func() {
		log.Info("shutting down, closing databases")
		s.chain.Database.Close()
		os.Exit(0)
	})
}

func (s *Server) handleConnection(conn net.Conn) {
	connID := uuid.NewString()
	connLog := log.WithField("conn", connID)

	defer conn.Close()

	req, err := readAll(conn)
	if err != nil {
		connLog.WithError(err).Warn("read failed")
		return
	}
	if len(req) < commandLength {
		connLog.Warn("short frame, dropping")
		return
	}

	cmd := bytesToCmd(req[:commandLength])
	connLog.WithField("cmd", cmd).Debug("received message")

	var handleErr error
	switch cmd {
	case cmdAddr:
		handleErr = s.handleAddr(req)
	case cmdBlock:
		handleErr = s.handleBlock(req)
	case cmdGetBlocks:
		handleErr = s.handleGetBlocks(req)
	case cmdGetData:
		handleErr = s.handleGetData(req)
	case cmdInv:
		handleErr = s.handleInv(req)
	case cmdTx:
		handleErr = s.handleTx(req)
	case cmdVersion:
		handleErr = s.handleVersion(req)
	default:
		connLog.WithField("cmd", cmd).Warn("unknown command")
	}
	if handleErr != nil {
		connLog.WithError(handleErr).Warn("handler failed")
	}
}

func readAll(conn net.Conn) ([]byte, error) {
	buf := make([]byte, 0, 4096)
	chunk := make([]byte, 4096)
	for {
		n, err := conn.Read(chunk)
		if n > 0 {
			buf = append(buf, chunk[:n]...)
		}
		if err != nil {
			break
		}
	}
	return buf, nil
}

// isSeed reports whether this node is the network's bootstrap node.
func (s *Server) isSeed() bool {
	return s.self == s.cfg.KnownNode1
}

func (s *Server) addKnownNode(addr string) {
	if addr == "" || addr == s.self {
		return
	}
	s.mu.Lock()
	_, known := s.knownNodes[addr]
	if !known {
		s.knownNodes[addr] = struct{}{}
	}
	s.mu.Unlock()
	if !known {
		log.WithField("peer", addr).Info("discovered new peer")
	}
}

func (s *Server) removeKnownNode(addr string) {
	s.mu.Lock()
	delete(s.knownNodes, addr)
	s.mu.Unlock()
}

func (s *Server) peerList() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	peers := make([]string, 0, len(s.knownNodes))
	for n := range s.knownNodes {
		peers = append(peers, n)
	}
	return peers
}
