package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/coinbase/cb-multisig-go/pkg/multisig"
	"github.com/coinbase/cb-multisig-go/pkg/multisig/coordinator"
	"github.com/coinbase/cb-multisig-go/pkg/multisig/events"
	"github.com/coinbase/cb-multisig-go/pkg/multisig/events/redisstream"
	"github.com/coinbase/cb-multisig-go/pkg/multisig/keystore"
	"github.com/coinbase/cb-multisig-go/pkg/multisig/sigverify"
)

type simulateFlags struct {
	alg       string
	weights   []uint
	threshold string
	expiry    uint64
	signers   int
	skip      uint64
	chain     string
	message   string
}

func newSimulateCmd(a *app) *cobra.Command {
	var f simulateFlags

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run one signing session in process and print its events",
		Long: "Run one signing session in process with freshly generated keys. Participants " +
			"sign in order, one per height. Every event is printed as a JSON envelope, " +
			"followed by the final session view. When MULTISIG_REDIS_ADDR is set the " +
			"events are also appended to the configured Redis stream.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSimulation(cmd.Context(), a, &f, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&f.alg, "alg", sigverify.ECDSASecp256k1.String(), "Signature algorithm")
	cmd.Flags().UintSliceVar(&f.weights, "weights", []uint{1, 1, 1}, "Participant weights")
	cmd.Flags().StringVar(&f.threshold, "threshold", "", "Threshold (default $MULTISIG_THRESHOLD)")
	cmd.Flags().Uint64Var(&f.expiry, "expiry", 0, "Expiry window in heights (default $MULTISIG_EXPIRY_WINDOW)")
	cmd.Flags().IntVar(&f.signers, "signers", -1, "Number of participants that sign, -1 for all")
	cmd.Flags().Uint64Var(&f.skip, "skip", 0, "Heights to advance before the first signature")
	cmd.Flags().StringVar(&f.chain, "chain", "", "Destination chain name")
	cmd.Flags().StringVar(&f.message, "message", "cb-multisig simulation", "Message; signed as its keccak256 digest (starknet-keccak for stark)")
	return cmd
}

func runSimulation(ctx context.Context, a *app, f *simulateFlags, out io.Writer) error {
	alg, err := sigverify.ParseAlgorithm(f.alg)
	if err != nil {
		return err
	}
	opts := a.cfg.CoordinatorOptions(a.logger)
	if f.threshold != "" {
		if opts.DefaultThreshold, err = multisig.ParseThreshold(f.threshold); err != nil {
			return err
		}
	}
	if f.expiry > 0 {
		opts.ExpiryWindow = f.expiry
	}
	// the simulation always has an authorized caller
	opts.RequireAuthorizedCaller = false

	snap, signers, err := generateCommittee("simulation", alg, multisig.Threshold{}, f.weights)
	if err != nil {
		return err
	}
	defer closeSigners(signers)
	store := keystore.NewMemory()
	if err := store.Put(ctx, snap); err != nil {
		return err
	}
	if err := store.Activate(ctx, snap.KeyID()); err != nil {
		return err
	}

	log := events.NewLog()
	sink := events.Sink(log)
	if a.cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: a.cfg.RedisAddr})
		defer client.Close()
		stream, err := redisstream.New(client, a.cfg.RedisStream)
		if err != nil {
			return err
		}
		sink = events.Tee(log, stream)
	}

	clock := coordinator.NewManualClock(1)
	coord, err := coordinator.New(store, sink, clock, opts)
	if err != nil {
		return err
	}

	hashName := "keccak256"
	if alg == sigverify.StarkCurve {
		hashName = "starknet-keccak"
	}
	msg, err := digest(hashName, []byte(f.message))
	if err != nil {
		return err
	}
	id, err := coord.StartSession(ctx, &coordinator.StartParams{Message: msg, Chain: f.chain})
	if err != nil {
		return err
	}

	clock.Advance(f.skip)
	members := snap.Participants()
	count := f.signers
	if count < 0 || count > len(members) {
		count = len(members)
	}
	for _, p := range members[:count] {
		clock.Advance(1)
		sig, err := signers[p.ID].Sign(msg)
		if err != nil {
			return err
		}
		err = coord.SubmitSignature(ctx, id, p.ID, sig)
		switch {
		case err == nil:
		case errors.Is(err, multisig.ErrSessionClosed), errors.Is(err, multisig.ErrSessionExpired):
			a.logger.Info(ctx, "submission refused", "participant", p.ID, "error", err)
		default:
			return err
		}
	}

	for _, e := range log.Events() {
		line, err := events.Encode(e)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(line))
	}
	view, err := coord.GetSigningSession(ctx, id)
	if err != nil {
		return err
	}
	return writeJSON(out, view)
}
