package main

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coinbase/cb-multisig-go/pkg/multisig"
	"github.com/coinbase/cb-multisig-go/pkg/multisig/events"
	"github.com/coinbase/cb-multisig-go/pkg/multisig/events/redisstream"
	"github.com/coinbase/cb-multisig-go/pkg/multisig/sigverify"
	"github.com/coinbase/cb-multisig-go/pkg/multisig/testsigner"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("MULTISIG_LOG_LEVEL", "error")
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := run(t, "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, multisig.ModuleVersion())
}

func TestDigest(t *testing.T) {
	out, err := run(t, "", "digest", "abc")
	require.NoError(t, err)
	assert.Equal(t, "4e03657aea45a94fc7d47ba826c8d667c0d1e6e33a64a036ec44f58fa12d6c45\n", out)

	out, err = run(t, "", "digest", "--hash", "sha256", "--hex", "616263")
	require.NoError(t, err)
	assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad\n", out)

	out, err = run(t, "", "digest", "--hash", "starknet-keccak", "abc")
	require.NoError(t, err)
	assert.Equal(t, "0203657aea45a94fc7d47ba826c8d667c0d1e6e33a64a036ec44f58fa12d6c45\n", out)

	_, err = run(t, "", "digest", "--hash", "md5", "abc")
	assert.Error(t, err)
}

func TestVerify(t *testing.T) {
	signer, err := testsigner.New(sigverify.ECDSASecp256k1, rand.Reader)
	require.NoError(t, err)
	msg, err := digest("keccak256", []byte("payload"))
	require.NoError(t, err)
	sig, err := signer.Sign(msg)
	require.NoError(t, err)

	args := []string{"verify",
		"--pubkey", hex.EncodeToString(signer.PublicKey()),
		"--msg", "0x" + hex.EncodeToString(msg),
	}
	out, err := run(t, "", append(args, "--sig", hex.EncodeToString(sig))...)
	require.NoError(t, err)
	assert.Equal(t, "valid\n", out)

	sig[10] ^= 0x01
	out, err = run(t, "", append(args, "--sig", hex.EncodeToString(sig))...)
	assert.ErrorIs(t, err, errSignatureRejected)
	assert.Equal(t, "invalid\n", out)

	_, err = run(t, "", append(args, "--sig", "zz")...)
	assert.Error(t, err)
}

func TestSnapshotLifecycle(t *testing.T) {
	db := filepath.Join(t.TempDir(), "keys.db")

	genOut, err := run(t, "", "snapshot", "gen", "--key-id", "key-7", "--weights", "2,1,1", "--threshold", "1/2")
	require.NoError(t, err)
	var generated multisig.Snapshot
	require.NoError(t, json.Unmarshal([]byte(genOut), &generated))
	assert.Equal(t, uint64(4), generated.TotalWeight())

	out, err := run(t, genOut, "snapshot", "put", "--db", db, "--activate")
	require.NoError(t, err)
	assert.Equal(t, "key-7\n", out)

	_, err = run(t, genOut, "snapshot", "put", "--db", db)
	assert.Error(t, err)

	out, err = run(t, "", "snapshot", "show", "--db", db)
	require.NoError(t, err)
	var shown multisig.Snapshot
	require.NoError(t, json.Unmarshal([]byte(out), &shown))
	assert.Equal(t, generated.Participants(), shown.Participants())
	assert.Equal(t, multisig.MustThreshold(1, 2), shown.Threshold())

	t.Setenv("MULTISIG_SQLITE_PATH", db)
	out, err = run(t, "", "snapshot", "list")
	require.NoError(t, err)
	assert.Equal(t, "* key-7\n", out)

	_, err = run(t, "", "snapshot", "activate", "missing")
	assert.ErrorIs(t, err, multisig.ErrUnknownKey)
}

func TestSnapshotRequiresDatabase(t *testing.T) {
	t.Setenv("MULTISIG_SQLITE_PATH", "")
	_, err := run(t, "", "snapshot", "list")
	assert.Error(t, err)
}

func splitSimulation(t *testing.T, out string) ([]events.Event, map[string]any) {
	t.Helper()
	var evs []events.Event
	rest := out
	for strings.HasPrefix(rest, `{"kind"`) {
		line, tail, _ := strings.Cut(rest, "\n")
		e, err := events.Decode([]byte(line))
		require.NoError(t, err)
		evs = append(evs, e)
		rest = tail
	}
	var view map[string]any
	require.NoError(t, json.Unmarshal([]byte(rest), &view))
	return evs, view
}

func TestSimulateCompletes(t *testing.T) {
	out, err := run(t, "", "simulate", "--weights", "1,1,1", "--threshold", "2/3", "--chain", "ethereum")
	require.NoError(t, err)

	evs, view := splitSimulation(t, out)
	require.Len(t, evs, 4)
	assert.Equal(t, events.KindSigningStarted, evs[0].Kind())
	assert.Equal(t, "ethereum", evs[0].(events.SigningStarted).Chain)
	assert.Equal(t, events.KindSignatureSubmitted, evs[1].Kind())
	assert.Equal(t, events.KindSignatureSubmitted, evs[2].Kind())
	assert.Equal(t, events.KindSigningCompleted, evs[3].Kind())
	assert.Equal(t, "completed", view["state"])
	assert.Len(t, view["signatures"], 2)
}

func TestSimulateStark(t *testing.T) {
	out, err := run(t, "", "simulate", "--alg", "stark", "--weights", "2,1,1")
	require.NoError(t, err)

	evs, view := splitSimulation(t, out)
	// p1 and p2 reach 3 of 4; p3 is refused
	require.Len(t, evs, 4)
	assert.Equal(t, events.KindSigningCompleted, evs[3].Kind())
	assert.Equal(t, "completed", view["state"])
	assert.Len(t, view["signatures"], 2)
}

func TestSimulateExpires(t *testing.T) {
	out, err := run(t, "", "simulate", "--alg", "ed25519", "--expiry", "3", "--skip", "5")
	require.NoError(t, err)

	evs, view := splitSimulation(t, out)
	require.Len(t, evs, 1)
	assert.Equal(t, "expired", view["state"])
}

func TestSimulatePublishesToRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	t.Setenv("MULTISIG_REDIS_ADDR", mr.Addr())
	t.Setenv("MULTISIG_REDIS_STREAM", "sim:events")

	_, err := run(t, "", "simulate", "--alg", "eddsa-babyjubjub", "--signers", "1")
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	stream, err := redisstream.New(client, "sim:events")
	require.NoError(t, err)
	entries, err := stream.Read(context.Background(), "", 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, events.KindSigningStarted, entries[0].Event.Kind())
	assert.Equal(t, events.KindSignatureSubmitted, entries[1].Event.Kind())
}
