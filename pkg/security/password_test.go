package security_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/franchisehub/backoffice/pkg/config"
	"github.com/franchisehub/backoffice/pkg/security"
)

func cheapConfig() config.PasswordConfig {
	return config.PasswordConfig{
		ArgonMemoryKB:    8192,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	}
}

func TestHasherRoundTrip(t *testing.T) {
	hasher := security.NewHasher(cheapConfig())

	hash, err := hasher.Hash("franchise-admin")
	if err != nil {
		t.Fatalf("Hash returned error: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$v=19$m=8192,t=1,p=1$") {
		t.Fatalf("unexpected hash header %q", hash)
	}

	ok, err := hasher.Verify("franchise-admin", hash)
	if err != nil || !ok {
		t.Fatalf("expected verify to succeed, ok=%v err=%v", ok, err)
	}
	ok, err = hasher.Verify("franchise-admin!", hash)
	if err != nil || ok {
		t.Fatalf("expected verify to fail for a wrong password, ok=%v err=%v", ok, err)
	}

	other, _ := hasher.Hash("franchise-admin")
	if other == hash {
		t.Fatal("expected a fresh salt per hash")
	}
}

func TestHashRejectsEmptyPassword(t *testing.T) {
	if _, err := security.NewHasher(cheapConfig()).Hash(""); !errors.Is(err, security.ErrEmptyPassword) {
		t.Fatalf("expected ErrEmptyPassword, got %v", err)
	}
}

func TestVerifyMalformedHashes(t *testing.T) {
	hasher := security.NewHasher(cheapConfig())
	for _, bad := range []string{
		"not-a-hash",
		"$bcrypt$v=19$m=8,t=1,p=1$c2FsdA$a2V5",
		"$argon2id$v=16$m=8,t=1,p=1$c2FsdA$a2V5",
		"$argon2id$v=19$m=0,t=1,p=1$c2FsdA$a2V5",
		"$argon2id$v=19$m=8,t=1,p=1$!!$a2V5",
	} {
		if _, err := hasher.Verify("irrelevant", bad); !errors.Is(err, security.ErrInvalidHash) {
			t.Fatalf("expected ErrInvalidHash for %q, got %v", bad, err)
		}
	}
}

func TestVerifyUsesParametersFromHash(t *testing.T) {
	old := security.NewHasher(cheapConfig())
	hash, err := old.Hash("rotate-me")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	stronger := cheapConfig()
	stronger.ArgonTime = 2
	current := security.NewHasher(stronger)

	ok, err := current.Verify("rotate-me", hash)
	if err != nil || !ok {
		t.Fatalf("old hashes must still verify, ok=%v err=%v", ok, err)
	}
	if !current.NeedsRehash(hash) {
		t.Fatal("expected hash with old cost to need a rehash")
	}
	if old.NeedsRehash(hash) {
		t.Fatal("hash with current cost should not need a rehash")
	}
	if !current.NeedsRehash("garbage") {
		t.Fatal("unparseable hash should need a rehash")
	}
}

func TestParamsFromConfigClamps(t *testing.T) {
	p := security.ParamsFromConfig(config.PasswordConfig{})
	if p.Memory != 8 || p.Time != 1 || p.Parallelism != 1 || p.SaltLen != 8 || p.KeyLen != 16 {
		t.Fatalf("unexpected clamped params %+v", p)
	}
}

func TestVerifyDummyDoesNotPanic(t *testing.T) {
	hasher := security.NewHasher(cheapConfig())
	hasher.VerifyDummy("anything")
	hasher.VerifyDummy("anything-else")
}
