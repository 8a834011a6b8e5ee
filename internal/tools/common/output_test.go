package common

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestCIResultReportsFailure(t *testing.T) {
	var buf bytes.Buffer
	res := newCIResult("media", "sweep", 1500*time.Millisecond, []string{"scanned=2"}, errors.New("bucket offline"))
	if err := writeCIResult(&buf, res); err != nil {
		t.Fatalf("write: %v", err)
	}
	var got CIResult
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.OK || got.Tool != "media" || got.Command != "sweep" || got.DurationMS != 1500 || got.Error != "bucket offline" {
		t.Fatalf("unexpected result: %+v", got)
	}
}

func TestCIResultAlwaysCarriesDetailsArray(t *testing.T) {
	var buf bytes.Buffer
	if err := writeCIResult(&buf, newCIResult("seed", "dry-run", 0, nil, nil)); err != nil {
		t.Fatalf("write: %v", err)
	}
	if !bytes.Contains(buf.Bytes(), []byte(`"details": []`)) || !bytes.Contains(buf.Bytes(), []byte(`"ok": true`)) {
		t.Fatalf("unexpected output: %s", buf.String())
	}
	if bytes.Contains(buf.Bytes(), []byte(`"error"`)) {
		t.Fatalf("successful run must omit error: %s", buf.String())
	}
}
