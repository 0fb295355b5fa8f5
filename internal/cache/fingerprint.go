package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"io"

	"github.com/kaveh8866/SemantIQ/internal/models"
)

// Fingerprint derives the identity of a single execution. Two executions with
// the same fingerprint are expected to produce equivalent results, so the
// fingerprint is the key of the result cache.
//
// The identity fields are written in a fixed order, each NUL-terminated,
// followed by the canonical encoding of the parameters (sorted keys, typed
// values). Parameter insertion order therefore never affects the result.
func Fingerprint(benchmarkID, benchmarkVersion, datasetHash, promptVersion, provider, model string, params models.Params) string {
	h := sha256.New()

	for _, field := range []string{benchmarkID, benchmarkVersion, datasetHash, promptVersion, provider, model} {
		writeString(h, field)
	}
	_, _ = io.WriteString(h, params.Canonical())

	return hex.EncodeToString(h.Sum(nil))
}

// FingerprintSpec fingerprints a run config against the benchmark it targets.
// Only the sweep parameters of rc take part; spec defaults are already covered
// by the benchmark version.
func FingerprintSpec(spec *models.BenchmarkSpec, rc models.RunConfig) string {
	return Fingerprint(
		spec.ID,
		spec.Version,
		spec.DatasetIdentity(),
		spec.PromptVersion,
		rc.Provider,
		rc.Model,
		rc.Params,
	)
}

func writeString(w io.Writer, s string) {
	// NUL delimiter keeps ("ab","c") and ("a","bc") apart
	_, _ = io.WriteString(w, s+"\x00")
}
