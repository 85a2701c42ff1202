package main

import (
	"bytes"
	"crypto/elliptic"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/urfave/cli"
	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"

	"github.com/forestrie/go-merkletree/merkle"
	"github.com/forestrie/go-merkletree/merkletesting"
)

var letters = []string{"a", "b", "c", "d", "e", "f"}

// run executes the command line and returns the standard output and the exit
// code requested by the command.
func run(t *testing.T, args ...string) (string, int, error) {
	t.Helper()
	code := 0
	exiter := cli.OsExiter
	cli.OsExiter = func(c int) { code = c }
	t.Cleanup(func() { cli.OsExiter = exiter })

	var out, errOut bytes.Buffer
	ctl := newApp()
	ctl.Writer = &out
	ctl.ErrWriter = &errOut
	err := ctl.Run(append([]string{"merkletree"}, args...))
	return out.String(), code, err
}

func lines(out string) []string {
	return strings.Split(strings.TrimSpace(out), "\n")
}

func TestRoot(t *testing.T) {
	out, _, err := run(t, append([]string{"root"}, letters...)...)
	assert.NilError(t, err)
	assert.Equal(t, out, merkletesting.SHA256Vectors.Root+"\n")

	out, _, err = run(t, append([]string{"root", "-a", "keccak256", "--sorted"}, letters...)...)
	assert.NilError(t, err)
	assert.Equal(t, out, merkletesting.Keccak256SortedVectors.Root+"\n")
}

func TestRoot_LeavesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "leaves.txt")
	assert.NilError(t, os.WriteFile(path, []byte("a\nb\n\nc\n"), 0o644))

	out, _, err := run(t, "root", "--leaves", path)
	assert.NilError(t, err)
	assert.Equal(t, out, merkletesting.SHA256LetterRoots[2]+"\n")

	// the same tree from hex encoded leaf hashes
	tc := merkletesting.NewTestContext(t, merkletesting.TestConfig{})
	var hashed []string
	for _, leaf := range tc.LetterLeaves(3) {
		hashed = append(hashed, strings.ToUpper(merkle.ToHex(leaf)))
	}
	out, _, err = run(t, append([]string{"root", "--hashed"}, hashed...)...)
	assert.NilError(t, err)
	assert.Equal(t, out, merkletesting.SHA256LetterRoots[2]+"\n")
}

func TestRoot_Errors(t *testing.T) {
	_, code, err := run(t, "root")
	assert.ErrorContains(t, err, "no leaves given")
	assert.Equal(t, code, 1)

	_, code, err = run(t, "root", "-a", "md5", "a")
	assert.ErrorContains(t, err, "md5")
	assert.Equal(t, code, 1)

	_, _, err = run(t, "root", "--hashed", "zz")
	assert.ErrorContains(t, err, `leaf "zz"`)
}

func TestProofAndVerify(t *testing.T) {
	dir := t.TempDir()
	receiptPath := filepath.Join(dir, "receipt.cbor")
	v := merkletesting.SHA256Vectors

	out, _, err := run(t, append([]string{"proof", "-p", "4,3", "-p", "0", "--out", receiptPath}, letters...)...)
	assert.ErrorContains(t, err, "exactly one set")
	assert.Equal(t, out, "")

	out, _, err = run(t, append([]string{"proof", "-p", "3,4", "-p", "5"}, letters...)...)
	assert.NilError(t, err)
	got := lines(out)
	assert.Equal(t, len(got), 3)
	assert.Equal(t, got[0], "root "+v.Root)
	assert.Equal(t, got[1], "3,4 "+strings.Join(v.ProofHashes, ""))
	assert.Check(t, is.Contains(got[2], "5 "))

	_, _, err = run(t, append([]string{"proof", "-p", "3,4", "--out", receiptPath}, letters...)...)
	assert.NilError(t, err)

	out, _, err = run(t, "verify", "--receipt", receiptPath, "--root", v.Root)
	assert.NilError(t, err)
	assert.Equal(t, out, "valid\n")

	out, code, err := run(t, "verify", "--receipt", receiptPath, "--root", merkletesting.SHA256LetterRoots[4])
	assert.ErrorContains(t, err, "does not verify")
	assert.Equal(t, out, "invalid\n")
	assert.Equal(t, code, 1)

	_, _, err = run(t, "verify", "--receipt", receiptPath, "--root", "not hex")
	assert.ErrorContains(t, err, "invalid --root")
}

func TestProof_OutOfRange(t *testing.T) {
	_, code, err := run(t, append([]string{"proof", "-p", "6"}, letters...)...)
	assert.Assert(t, err != nil)
	assert.Equal(t, code, 1)

	_, _, err = run(t, append([]string{"proof", "-p", "x"}, letters...)...)
	assert.ErrorContains(t, err, `leaf position "x"`)
}

func writeKeys(t *testing.T, dir string) (string, string) {
	key := merkletesting.GenerateECKey(t, elliptic.P256())
	der, err := x509.MarshalECPrivateKey(key)
	assert.NilError(t, err)
	keyPath := filepath.Join(dir, "key.pem")
	assert.NilError(t, os.WriteFile(keyPath, pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: der}), 0o600))

	der, err = x509.MarshalPKIXPublicKey(&key.PublicKey)
	assert.NilError(t, err)
	pubPath := filepath.Join(dir, "pub.pem")
	assert.NilError(t, os.WriteFile(pubPath, pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}), 0o644))
	return keyPath, pubPath
}

func TestSignAndVerifyCheckpoint(t *testing.T) {
	dir := t.TempDir()
	keyPath, pubPath := writeKeys(t, dir)
	checkpointPath := filepath.Join(dir, "checkpoint.cose")
	const treeID = "5f3b1a6e-2a5c-4c0e-9d1f-7b0d2f3c4a5b"

	_, _, err := run(t, append([]string{
		"sign", "--key", keyPath, "--tree-id", treeID, "--out", checkpointPath}, letters...)...)
	assert.NilError(t, err)

	out, _, err := run(t, append([]string{
		"verify-checkpoint", "--checkpoint", checkpointPath, "--pub", pubPath}, letters...)...)
	assert.NilError(t, err)
	assert.Equal(t, out, "valid "+treeID+" 6 "+merkletesting.SHA256Vectors.Root+"\n")

	// a different tree of the same size
	_, code, err := run(t, "verify-checkpoint", "--checkpoint", checkpointPath, "--pub", pubPath,
		"u", "v", "w", "x", "y", "z")
	assert.Assert(t, err != nil)
	assert.Equal(t, code, 1)

	// the tree grew since the state was signed
	_, _, err = run(t, append([]string{
		"verify-checkpoint", "--checkpoint", checkpointPath, "--pub", pubPath}, append(letters, "g")...)...)
	assert.Assert(t, err != nil)

	// signed by a different issuer
	config := filepath.Join(dir, "config.yml")
	assert.NilError(t, os.WriteFile(config, []byte("Issuer: someone.else\n"), 0o644))
	_, _, err = run(t, append([]string{
		"verify-checkpoint", "-c", config, "--checkpoint", checkpointPath, "--pub", pubPath}, letters...)...)
	assert.ErrorContains(t, err, "cwt claims failed validation")

	_, _, err = run(t, append([]string{
		"verify-checkpoint", "-a", "blake3", "--checkpoint", checkpointPath, "--pub", pubPath}, letters...)...)
	assert.ErrorContains(t, err, "signed for sha256")
}

func TestSign_Errors(t *testing.T) {
	dir := t.TempDir()
	_, _, err := run(t, append([]string{"sign"}, letters...)...)
	assert.ErrorContains(t, err, "key file is required")

	notPEM := filepath.Join(dir, "key.txt")
	assert.NilError(t, os.WriteFile(notPEM, []byte("not a key"), 0o600))
	_, _, err = run(t, append([]string{"sign", "--key", notPEM}, letters...)...)
	assert.ErrorContains(t, err, "no PEM data")

	keyPath, _ := writeKeys(t, dir)
	_, _, err = run(t, append([]string{"sign", "--key", keyPath, "--tree-id", "nope"}, letters...)...)
	assert.Assert(t, err != nil)

	out, _, err := run(t, append([]string{"sign", "--key", keyPath}, letters...)...)
	assert.NilError(t, err)
	assert.Assert(t, len(strings.TrimSpace(out)) > 0)
}

func TestDemo(t *testing.T) {
	v := merkletesting.SHA256Vectors
	out, _, err := run(t, "demo", "--metrics")
	assert.NilError(t, err)
	got := lines(out)
	assert.Assert(t, len(got) > 9)

	steps := got[:9]
	assert.Check(t, is.Contains(steps[0], "root none uncommitted "+v.Root))
	assert.Check(t, is.Contains(steps[1], "root "+v.Root))
	assert.Check(t, is.Contains(steps[3], "root "+v.RootAfterG))
	assert.Check(t, is.Contains(steps[5], "root "+v.RootAfterHK))
	assert.Check(t, is.Contains(steps[6], "root "+v.RootAfterHK))
	assert.Check(t, is.Contains(steps[7], "leaves 7 staged 0 root "+v.RootAfterG))
	assert.Check(t, is.Contains(steps[8], "leaves 6 staged 0 root "+v.Root))

	assert.Check(t, is.Contains(out, "merkletree_commits_total 3"))
	assert.Check(t, is.Contains(out, "merkletree_rollbacks_total 2"))
}
