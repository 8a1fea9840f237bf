// ledgerctl is the CLI front-end over the ledger's command processor (§6.1).
package main

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"shieldedledger/config"
	"shieldedledger/ledger"
	"shieldedledger/ledgerwire"
	"shieldedledger/logging"
	"shieldedledger/store"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cfg := config.Load()
	logger := logging.New(cfg)

	s, err := store.Open(cfg.DataDir)
	if err != nil {
		log.Fatalf("opening store: %v", err)
	}
	defer s.Close()

	l := ledger.New(s, logger.WithField("component", "ledger"))

	if err := dispatch(l, os.Args[1], os.Args[2:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("usage: ledgerctl <command> [args]")
	fmt.Println("commands: wallet create-utxo spend-utxo create-note spend-note " +
		"submit-txn clear-txn mine get-mnemonic get-new-address value-pools " +
		"conjure-utxo get-utxos")
}

func dispatch(l *ledger.Ledger, cmd string, args []string) error {
	switch cmd {
	case "wallet", "value-pools":
		return cmdValuePools(l)

	case "create-utxo":
		value, err := parseU64(args, 0, "value")
		if err != nil {
			return err
		}
		if err := l.CreateUTXO(value); err != nil {
			return err
		}
		fmt.Println("staged transparent output")
		return nil

	case "spend-utxo":
		id, err := parseU64(args, 0, "utxo_id")
		if err != nil {
			return err
		}
		if err := l.SpendUTXO(id); err != nil {
			return err
		}
		fmt.Println("staged transparent input")
		return nil

	case "create-note":
		value, err := parseU64(args, 0, "value")
		if err != nil {
			return err
		}
		var recipient *ledgerwire.Address
		if len(args) > 1 {
			addr, err := ledgerwire.ParseAddress(args[1])
			if err != nil {
				return fmt.Errorf("parsing recipient: %w", err)
			}
			recipient = &addr
		}
		addr, err := l.CreateNote(value, recipient)
		if err != nil {
			return err
		}
		fmt.Printf("staged shielded output to %s\n", addr.String())
		return nil

	case "spend-note":
		id, err := parseU64(args, 0, "note_id")
		if err != nil {
			return err
		}
		if err := l.SpendNote(id); err != nil {
			return err
		}
		fmt.Println("staged shielded input")
		return nil

	case "submit-txn":
		if err := l.Submit(); err != nil {
			return err
		}
		fmt.Println("pending transaction submitted")
		return nil

	case "clear-txn":
		if err := l.Clear(); err != nil {
			return err
		}
		fmt.Println("mempool cleared")
		return nil

	case "mine":
		if err := l.Mine(); err != nil {
			return err
		}
		fmt.Println("block connected")
		return nil

	case "get-mnemonic":
		phrase, err := l.Mnemonic()
		if err != nil {
			return err
		}
		fmt.Println(phrase)
		return nil

	case "get-new-address":
		addr, err := l.NewAddress()
		if err != nil {
			return err
		}
		fmt.Println(addr.String())
		return nil

	case "conjure-utxo":
		value, err := parseU64(args, 0, "value")
		if err != nil {
			return err
		}
		id, err := l.ConjureUTXO(value)
		if err != nil {
			return err
		}
		fmt.Printf("conjured utxo %d\n", id)
		return nil

	case "get-utxos":
		return cmdGetUTXOs(l)

	default:
		usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func cmdValuePools(l *ledger.Ledger) error {
	transparent, shielded, err := l.ValuePools()
	if err != nil {
		return err
	}
	fmt.Printf("transparent pool: %d\n", transparent)
	fmt.Printf("shielded pool:    %d\n", shielded)
	return nil
}

func cmdGetUTXOs(l *ledger.Ledger) error {
	utxos, notes, err := l.UTXOsAndNotes()
	if err != nil {
		return err
	}
	fmt.Println("utxos:")
	for id, value := range utxos {
		fmt.Printf("  %d: %d\n", id, value)
	}
	fmt.Println("notes:")
	for id, rec := range notes {
		fmt.Printf("  %d: %d -> %s\n", id, rec.Note.Value, rec.Note.Recipient.String())
	}
	return nil
}

func parseU64(args []string, idx int, name string) (uint64, error) {
	if idx >= len(args) {
		return 0, fmt.Errorf("missing argument %s", name)
	}
	v, err := strconv.ParseUint(args[idx], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing %s: %w", name, err)
	}
	return v, nil
}
