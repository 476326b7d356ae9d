package monitoring

import (
	"errors"
	"testing"
	"time"
)

type captureMonitor struct {
	errs []error
	tags []map[string]string
}

func (c *captureMonitor) CaptureException(err error, tags map[string]string) {
	c.errs = append(c.errs, err)
	c.tags = append(c.tags, tags)
}
func (c *captureMonitor) Recover()            {}
func (c *captureMonitor) Flush(time.Duration) {}

func TestCaptureExceptionUsesInstalledMonitor(t *testing.T) {
	m := &captureMonitor{}
	Init(m)
	defer Reset()

	CaptureException(nil, nil)
	CaptureException(errors.New("boom"), RunTags("r1", "depot", "solve"))
	if len(m.errs) != 1 {
		t.Fatalf("expected one captured error, got %d", len(m.errs))
	}
	if m.tags[0]["run_id"] != "r1" || m.tags[0]["scenario"] != "depot" || m.tags[0]["stage"] != "solve" {
		t.Fatalf("unexpected tags %v", m.tags[0])
	}
}

func TestInitIgnoresNil(t *testing.T) {
	Init(nil)
	if _, ok := current.(NopMonitor); !ok {
		t.Fatalf("expected nop monitor, got %T", current)
	}
}
