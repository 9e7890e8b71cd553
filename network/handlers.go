package network

import (
	"github.com/ledgerlite/ledgerlite/blockchain"
)

func (s *Server) handleAddr(req []byte) error {
	var payload addrMsg
	if err := gobDecode(req, &payload); err != nil {
		return err
	}
	for _, addr := range payload.AddrList {
		s.addKnownNode(addr)
	}
	log.WithField("count", len(s.peerList())).Info("known peers updated")
	s.requestBlocks()
	return nil
}

func (s *Server) handleBlock(req []byte) error {
	var payload blockMsg
	if err := gobDecode(req, &payload); err != nil {
		return err
	}

	block, err := blockchain.DeserializeBlock(payload.Block)
	if err != nil {
		return err
	}

	if err := s.chain.AddBlock(block); err != nil {
		return err
	}
	log.WithField("hash", block.Hash).Info("added block received from peer")

	s.mu.Lock()
	var next string
	if len(s.blocksInTransit) > 0 {
		next = s.blocksInTransit[0]
		s.blocksInTransit = s.blocksInTransit[1:]
	}
	s.mu.Unlock()

	if next != "" {
		return s.sendGetData(payload.AddrFrom, "block", next)
	}
	return s.utxo.Reindex()
}

func (s *Server) handleGetBlocks(req []byte) error {
	var payload getBlocksMsg
	if err := gobDecode(req, &payload); err != nil {
		return err
	}
	hashes, err := s.chain.GetBlockHashes()
	if err != nil {
		return err
	}
	return s.sendInv(payload.AddrFrom, "block", hashes)
}

func (s *Server) handleGetData(req []byte) error {
	var payload getDataMsg
	if err := gobDecode(req, &payload); err != nil {
		return err
	}

	switch payload.Kind {
	case "block":
		block, err := s.chain.GetBlock(payload.ID)
		if err != nil {
			return nil // peer asked for something we no longer have
		}
		return s.sendBlock(payload.AddrFrom, block)
	case "tx":
		s.mu.Lock()
		tx := s.mempool[payload.ID]
		s.mu.Unlock()
		if tx == nil {
			return nil
		}
		return s.sendTx(payload.AddrFrom, tx)
	}
	return nil
}

func (s *Server) handleTx(req []byte) error {
	var payload txMsg
	if err := gobDecode(req, &payload); err != nil {
		return err
	}

	tx, err := blockchain.DeserializeTransaction(payload.Transaction)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.mempool[tx.ID] = tx
	poolSize := len(s.mempool)
	s.mu.Unlock()
	log.WithField("pool", poolSize).Debug("transaction added to mempool")

	if s.isSeed() {
		for _, peer := range s.peerList() {
			if peer != payload.AddrFrom {
				s.sendInv(peer, "tx", []string{tx.ID})
			}
		}
		return nil
	}

	if poolSize >= 1 && s.mine != "" {
		return s.mineTx()
	}
	return nil
}

// mineTx collects every currently-valid mempool transaction, mines a
// block rewarding s.mine, broadcasts it, and — per spec.md §4.7 — keeps
// mining while the mempool still has transactions left.
func (s *Server) mineTx() error {
	s.mu.Lock()
	var txs []*blockchain.Transaction
	for _, tx := range s.mempool {
		txs = append(txs, tx)
	}
	s.mu.Unlock()

	var valid []*blockchain.Transaction
	for _, tx := range txs {
		ok, err := s.chain.VerifyTransaction(tx)
		if err != nil {
			return err
		}
		if ok {
			valid = append(valid, tx)
		}
	}
	if len(valid) == 0 {
		log.Warn("all pending transactions are invalid, nothing to mine")
		return nil
	}

	cbTx, err := blockchain.NewCoinbaseTx(s.cfg, s.mine, "")
	if err != nil {
		return err
	}
	valid = append(valid, cbTx)

	block, err := s.chain.MineBlock(valid)
	if err != nil {
		return err
	}
	if err := s.utxo.Reindex(); err != nil {
		return err
	}
	log.WithField("hash", block.Hash).Info("mined new block")

	s.mu.Lock()
	for _, tx := range valid {
		delete(s.mempool, tx.ID)
	}
	remaining := len(s.mempool)
	s.mu.Unlock()

	for _, peer := range s.peerList() {
		s.sendInv(peer, "block", []string{block.Hash})
	}

	if remaining > 0 {
		return s.mineTx()
	}
	return nil
}

func (s *Server) handleVersion(req []byte) error {
	var payload versionMsg
	if err := gobDecode(req, &payload); err != nil {
		return err
	}

	bestHeight, err := s.chain.GetBestHeight()
	if err != nil {
		return err
	}

	if bestHeight < payload.BestHeight {
		if err := s.sendGetBlocks(payload.AddrFrom); err != nil {
			return err
		}
	} else if bestHeight > payload.BestHeight {
		if err := s.sendVersion(payload.AddrFrom); err != nil {
			return err
		}
	}

	s.addKnownNode(payload.AddrFrom)
	return s.sendAddr(payload.AddrFrom)
}

func (s *Server) handleInv(req []byte) error {
	var payload invMsg
	if err := gobDecode(req, &payload); err != nil {
		return err
	}
	if len(payload.Items) == 0 {
		return nil
	}
	log.WithField("count", len(payload.Items)).WithField("kind", payload.Kind).Debug("received inventory")

	switch payload.Kind {
	case "block":
		s.mu.Lock()
		s.blocksInTransit = payload.Items
		first := payload.Items[0]
		s.blocksInTransit = s.blocksInTransit[1:]
		s.mu.Unlock()
		return s.sendGetData(payload.AddrFrom, "block", first)
	case "tx":
		txID := payload.Items[0]
		s.mu.Lock()
		_, have := s.mempool[txID]
		s.mu.Unlock()
		if !have {
			return s.sendGetData(payload.AddrFrom, "tx", txID)
		}
	}
	return nil
}
