package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
)

// CommandRunner executa um programa externo. stdin pode ser nil.
type CommandRunner interface {
	Run(ctx context.Context, stdin io.Reader, name string, args ...string) ([]byte, error)
}

// ExecRunner executa comandos com os/exec e retorna a saída combinada.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, stdin io.Reader, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = stdin
	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf
	if err := cmd.Run(); err != nil {
		return buf.Bytes(), fmt.Errorf("%s %s: %w: %s", name, strings.Join(redact(args), " "), err, strings.TrimSpace(lastLines(buf.String(), 20)))
	}
	return buf.Bytes(), nil
}

// redact esconde o valor após --password nas mensagens de erro.
func redact(args []string) []string {
	out := make([]string, len(args))
	copy(out, args)
	for i := range out {
		if (out[i] == "--password" || out[i] == "-p") && i+1 < len(out) {
			out[i+1] = "****"
		}
	}
	return out
}

func lastLines(s string, n int) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
