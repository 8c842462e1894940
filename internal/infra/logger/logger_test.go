package logger

import (
	"bytes"
	"strings"
	"testing"
)

func TestDebugOnlyInDev(t *testing.T) {
	var buf bytes.Buffer
	NewWithWriter("dev", &buf).Debug("detalhe")
	if !strings.Contains(buf.String(), `"msg":"detalhe"`) {
		t.Fatalf("debug deveria sair em dev: %q", buf.String())
	}

	buf.Reset()
	NewWithWriter("prod", &buf).Debug("detalhe")
	if buf.Len() != 0 {
		t.Fatalf("debug não deveria sair fora de dev: %q", buf.String())
	}
}
