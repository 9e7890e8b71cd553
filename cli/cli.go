// Package cli wires spec.md §6's commands onto cobra subcommands,
// replacing the teacher's hand-rolled flag.FlagSet switch in
// cli/cli.go with the same commands/flags it exposed (createblockchain,
// printchain, createwallet, listaddresses, getbalance, reindexutxo,
// send, startnode) renamed to SPEC_FULL.md's command names and extended
// with `mnemonic` and `startminer`.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ledgerlite/ledgerlite/blockchain"
	"github.com/ledgerlite/ledgerlite/chainerr"
	"github.com/ledgerlite/ledgerlite/config"
	"github.com/ledgerlite/ledgerlite/logging"
	"github.com/ledgerlite/ledgerlite/network"
	"github.com/ledgerlite/ledgerlite/wallet"
)

var log = logging.For("cli")

// NewRootCmd builds the ledgerlite root command with every subcommand
// attached. nodeID is read from the NODE_ID environment variable, the
// same convention the teacher repo used to key each node's data
// directory — cobra only replaces the argument parsing, not that
// convention.
func NewRootCmd() *cobra.Command {
	cfg := config.Default()

	root := &cobra.Command{
		Use:   "ledgerlite",
		Short: "An account-less UTXO blockchain node",
	}

	root.AddCommand(
		newCreateCmd(cfg),
		newPrintCmd(cfg),
		newCreateWalletCmd(cfg),
		newMnemonicCmd(cfg),
		newListAddressesCmd(cfg),
		newGetBalanceCmd(cfg),
		newReindexCmd(cfg),
		newSendCmd(cfg),
		newStartNodeCmd(cfg),
		newStartMinerCmd(cfg),
	)
	return root
}

func nodeID() (string, error) {
	id := os.Getenv("NODE_ID")
	if id == "" {
		return "", chainerr.New(chainerr.KindNotFound, "cli.nodeID", fmt.Errorf("NODE_ID environment variable is not set"))
	}
	return id, nil
}

func newCreateCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "create ADDRESS",
		Short: "Create a new blockchain and send the genesis reward to ADDRESS",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			address := args[0]
			if !wallet.ValidateAddress(address) {
				return chainerr.New(chainerr.KindInvalidTx, "cli.create", fmt.Errorf("invalid address %q", address))
			}
			id, err := nodeID()
			if err != nil {
				return err
			}

			chain, err := blockchain.CreateBlockchain(cfg, id, address)
			if err != nil {
				return err
			}
			defer chain.Database.Close()

			utxo := blockchain.NewUTXOSet(cfg, id, chain)
			if err := utxo.Reindex(); err != nil {
				return err
			}

			fmt.Println("Finished creating blockchain!")
			return nil
		},
	}
}

func newPrintCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "print",
		Short: "Print every block in the chain, tip first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := nodeID()
			if err != nil {
				return err
			}
			chain, err := blockchain.ContinueBlockchain(cfg, id)
			if err != nil {
				return err
			}
			defer chain.Database.Close()

			iter := chain.Iterator()
			for {
				block, err := iter.Next()
				if err != nil {
					return err
				}
				if block == nil {
					break
				}

				fmt.Printf("Height: %d\n", block.Height)
				fmt.Printf("Prev. hash: %s\n", block.PrevBlockHash)
				fmt.Printf("Hash: %s\n", block.Hash)
				for _, tx := range block.Transactions {
					fmt.Println(tx)
				}
				fmt.Println()
			}
			return nil
		},
	}
}

func newCreateWalletCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "create_wallet",
		Short: "Create a new wallet and print its address",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := nodeID()
			if err != nil {
				return err
			}
			wallets, err := wallet.Load(cfg, id)
			if err != nil {
				return err
			}
			address, err := wallets.CreateWallet()
			if err != nil {
				return err
			}
			if err := wallets.SaveAll(); err != nil {
				return err
			}
			fmt.Printf("New wallet created with address: %s\n", address)
			return nil
		},
	}
}

func newMnemonicCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "mnemonic ADDRESS",
		Short: "Print the BIP-39 recovery phrase for a wallet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := nodeID()
			if err != nil {
				return err
			}
			wallets, err := wallet.Load(cfg, id)
			if err != nil {
				return err
			}
			w, ok := wallets.GetWallet(args[0])
			if !ok {
				return chainerr.New(chainerr.KindNotFound, "cli.mnemonic", fmt.Errorf("no wallet for address %q", args[0]))
			}
			phrase, err := w.Mnemonic()
			if err != nil {
				return err
			}
			fmt.Println(phrase)
			return nil
		},
	}
}

func newListAddressesCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "list_addresses",
		Short: "List every address this node holds a wallet for",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := nodeID()
			if err != nil {
				return err
			}
			wallets, err := wallet.Load(cfg, id)
			if err != nil {
				return err
			}
			for _, address := range wallets.GetAllAddresses() {
				fmt.Println(address)
			}
			return nil
		},
	}
}

func newGetBalanceCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "getbalance ADDRESS",
		Short: "Print the spendable balance of ADDRESS",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			address := args[0]
			if !wallet.ValidateAddress(address) {
				return chainerr.New(chainerr.KindInvalidTx, "cli.getbalance", fmt.Errorf("invalid address %q", address))
			}
			id, err := nodeID()
			if err != nil {
				return err
			}
			chain, err := blockchain.ContinueBlockchain(cfg, id)
			if err != nil {
				return err
			}
			defer chain.Database.Close()

			utxo := blockchain.NewUTXOSet(cfg, id, chain)
			pubKeyHash, err := wallet.DecodeAddress(address)
			if err != nil {
				return err
			}
			outputs, err := utxo.FindUTXO(pubKeyHash)
			if err != nil {
				return err
			}

			var balance int32
			for _, out := range outputs {
				balance += out.Value
			}
			fmt.Printf("Balance of %s: %d\n", address, balance)
			return nil
		},
	}
}

func newReindexCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "reindex",
		Short: "Rebuild the UTXO index from the chain",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := nodeID()
			if err != nil {
				return err
			}
			chain, err := blockchain.ContinueBlockchain(cfg, id)
			if err != nil {
				return err
			}
			defer chain.Database.Close()

			utxo := blockchain.NewUTXOSet(cfg, id, chain)
			if err := utxo.Reindex(); err != nil {
				return err
			}
			count, err := utxo.CountTransactions()
			if err != nil {
				return err
			}
			fmt.Printf("Done! There are %d transactions in the UTXO set.\n", count)
			return nil
		},
	}
}

func newSendCmd(cfg *config.Config) *cobra.Command {
	var mine bool

	cmd := &cobra.Command{
		Use:   "send FROM TO AMOUNT",
		Short: "Send AMOUNT from FROM to TO, optionally mining it locally",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, to := args[0], args[1]
			var amount int32
			if _, err := fmt.Sscanf(args[2], "%d", &amount); err != nil || amount <= 0 {
				return chainerr.New(chainerr.KindInvalidTx, "cli.send", fmt.Errorf("invalid amount %q", args[2]))
			}
			if !wallet.ValidateAddress(from) || !wallet.ValidateAddress(to) {
				return chainerr.New(chainerr.KindInvalidTx, "cli.send", fmt.Errorf("invalid from/to address"))
			}

			id, err := nodeID()
			if err != nil {
				return err
			}
			chain, err := blockchain.ContinueBlockchain(cfg, id)
			if err != nil {
				return err
			}
			defer chain.Database.Close()

			utxo := blockchain.NewUTXOSet(cfg, id, chain)

			wallets, err := wallet.Load(cfg, id)
			if err != nil {
				return err
			}
			w, ok := wallets.GetWallet(from)
			if !ok {
				return chainerr.New(chainerr.KindNotFound, "cli.send", fmt.Errorf("no wallet for address %q", from))
			}

			tx, err := blockchain.NewUTXOTransaction(w, to, amount, utxo)
			if err != nil {
				return err
			}

			if mine {
				cbTx, err := blockchain.NewCoinbaseTx(cfg, from, "")
				if err != nil {
					return err
				}
				block, err := chain.MineBlock([]*blockchain.Transaction{cbTx, tx})
				if err != nil {
					return err
				}
				if err := utxo.Update(block); err != nil {
					return err
				}
			} else {
				if err := network.SendTxTo(cfg.KnownNode1, tx); err != nil {
					return err
				}
				fmt.Println("Sent transaction to network")
			}

			fmt.Println("Success!")
			return nil
		},
	}
	cmd.Flags().BoolVar(&mine, "mine", false, "mine the transaction into a block on this node immediately")
	return cmd
}

func newStartNodeCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "startnode PORT",
		Short: "Start a relay node listening on PORT",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNode(cfg, args[0], "")
		},
	}
}

func newStartMinerCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "startminer PORT ADDRESS",
		Short: "Start a mining node listening on PORT, rewarding ADDRESS",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !wallet.ValidateAddress(args[1]) {
				return chainerr.New(chainerr.KindInvalidTx, "cli.startminer", fmt.Errorf("invalid miner address %q", args[1]))
			}
			return runNode(cfg, args[0], args[1])
		},
	}
}

func runNode(cfg *config.Config, port, minerAddress string) error {
	id, err := nodeID()
	if err != nil {
		return err
	}
	chain, err := blockchain.OpenOrEmpty(cfg, id)
	if err != nil {
		return err
	}
	defer chain.Database.Close()

	if minerAddress != "" {
		log.WithField("address", minerAddress).Info("mining enabled")
	}
	log.WithField("node", id).WithField("port", port).Info("starting node")

	srv := network.NewServer(cfg, port, id, minerAddress, chain)
	return srv.Start()
}
