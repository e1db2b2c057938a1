package main

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/coinbase/cb-multisig-go/pkg/multisig"
	"github.com/coinbase/cb-multisig-go/pkg/multisig/keystore/sqlite"
	"github.com/coinbase/cb-multisig-go/pkg/multisig/sigverify"
	"github.com/coinbase/cb-multisig-go/pkg/multisig/testsigner"
)

func newSnapshotCmd(a *app) *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Manage committee snapshots in the SQLite key store",
	}
	cmd.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite database path (default $MULTISIG_SQLITE_PATH)")

	open := func(ctx context.Context) (*sqlite.Store, error) {
		path := dbPath
		if path == "" {
			path = a.cfg.SQLitePath
		}
		if path == "" {
			return nil, errors.New("no database: set --db or MULTISIG_SQLITE_PATH")
		}
		return sqlite.Open(ctx, path)
	}

	cmd.AddCommand(
		newSnapshotGenCmd(),
		newSnapshotPutCmd(a, open),
		newSnapshotShowCmd(open),
		newSnapshotActivateCmd(a, open),
		newSnapshotListCmd(open),
	)
	return cmd
}

type openStoreFunc func(ctx context.Context) (*sqlite.Store, error)

func newSnapshotGenCmd() *cobra.Command {
	var (
		keyID     string
		algName   string
		weights   []uint
		threshold string
	)

	cmd := &cobra.Command{
		Use:   "gen",
		Short: "Generate a snapshot with fresh keys and print it as JSON",
		Long: "Generate a snapshot with fresh keys and print it as JSON. Private keys are " +
			"discarded; the output is meant for fixtures and dry runs.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			alg, err := sigverify.ParseAlgorithm(algName)
			if err != nil {
				return err
			}
			var t multisig.Threshold
			if threshold != "" {
				if t, err = multisig.ParseThreshold(threshold); err != nil {
					return err
				}
			}
			snap, signers, err := generateCommittee(multisig.KeyID(keyID), alg, t, weights)
			if err != nil {
				return err
			}
			closeSigners(signers)
			return writeJSON(cmd.OutOrStdout(), snap)
		},
	}

	cmd.Flags().StringVar(&keyID, "key-id", "key-1", "Key id of the snapshot")
	cmd.Flags().StringVar(&algName, "alg", sigverify.ECDSASecp256k1.String(), "Signature algorithm")
	cmd.Flags().UintSliceVar(&weights, "weights", []uint{1, 1, 1}, "Participant weights")
	cmd.Flags().StringVar(&threshold, "threshold", "", "Optional threshold override, e.g. 2/3")
	return cmd
}

func newSnapshotPutCmd(a *app, open openStoreFunc) *cobra.Command {
	var file string
	var activate bool

	cmd := &cobra.Command{
		Use:   "put",
		Short: "Register a snapshot read from a JSON file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			data, err := readInput(cmd.InOrStdin(), file)
			if err != nil {
				return err
			}
			var snap multisig.Snapshot
			if err := json.Unmarshal(data, &snap); err != nil {
				return fmt.Errorf("parse snapshot: %w", err)
			}
			store, err := open(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Put(ctx, snap); err != nil {
				return err
			}
			a.logger.Info(ctx, "snapshot registered", "key_id", snap.KeyID(), "participants", snap.Len())
			if activate {
				if err := store.Activate(ctx, snap.KeyID()); err != nil {
					return err
				}
				a.logger.Info(ctx, "key activated", "key_id", snap.KeyID())
			}
			fmt.Fprintln(cmd.OutOrStdout(), snap.KeyID())
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "-", "Snapshot JSON file, - for stdin")
	cmd.Flags().BoolVar(&activate, "activate", false, "Make the snapshot's key active")
	return cmd
}

func newSnapshotShowCmd(open openStoreFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "show [key-id]",
		Short: "Print a snapshot, the active one by default",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := open(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			var keyID multisig.KeyID
			if len(args) == 1 {
				keyID = multisig.KeyID(args[0])
			} else if keyID, err = store.ActiveKey(ctx); err != nil {
				return err
			}
			snap, err := store.Snapshot(ctx, keyID)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), snap)
		},
	}
}

func newSnapshotActivateCmd(a *app, open openStoreFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "activate <key-id>",
		Short: "Make a registered key the active key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := open(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			keyID := multisig.KeyID(args[0])
			if err := store.Activate(ctx, keyID); err != nil {
				return err
			}
			a.logger.Info(ctx, "key activated", "key_id", keyID)
			return nil
		},
	}
}

func newSnapshotListCmd(open openStoreFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered key ids",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			store, err := open(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			keys, err := store.Keys(ctx)
			if err != nil {
				return err
			}
			active, err := store.ActiveKey(ctx)
			if err != nil && !errors.Is(err, multisig.ErrUnknownKey) {
				return err
			}
			for _, id := range keys {
				marker := " "
				if id == active {
					marker = "*"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", marker, id)
			}
			return nil
		},
	}
}

// generateCommittee creates one signer per weight, named p1, p2, ...
func generateCommittee(keyID multisig.KeyID, alg sigverify.Algorithm, t multisig.Threshold, weights []uint) (multisig.Snapshot, map[multisig.ParticipantID]*testsigner.Signer, error) {
	signers := make(map[multisig.ParticipantID]*testsigner.Signer, len(weights))
	members := make([]multisig.Participant, 0, len(weights))
	for i, w := range weights {
		s, err := testsigner.New(alg, rand.Reader)
		if err != nil {
			closeSigners(signers)
			return multisig.Snapshot{}, nil, err
		}
		id := multisig.ParticipantID(fmt.Sprintf("p%d", i+1))
		signers[id] = s
		members = append(members, multisig.Participant{ID: id, PublicKey: s.PublicKey(), Weight: uint64(w)})
	}
	snap, err := multisig.NewSnapshot(&multisig.SnapshotParams{
		KeyID:        keyID,
		Algorithm:    alg,
		Threshold:    t,
		Participants: members,
	})
	if err != nil {
		closeSigners(signers)
		return multisig.Snapshot{}, nil, err
	}
	return snap, signers, nil
}

// closeSigners wipes the private keys of generated signers.
func closeSigners(signers map[multisig.ParticipantID]*testsigner.Signer) {
	for _, s := range signers {
		s.Close()
	}
}

func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" || path == "" {
		return io.ReadAll(stdin)
	}
	data, err := os.ReadFile(path) // #nosec G304 -- operator-supplied path
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
