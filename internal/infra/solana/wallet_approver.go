// internal/infra/solana/wallet_approver.go
package solana

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
)

// AutoApprover accepts every interactive connect (the operator running a CLI command).
func AutoApprover(context.Context, string) bool { return true }

// DenyApprover rejects every interactive connect; only trusted silent connects pass.
func DenyApprover(context.Context, string) bool { return false }

// ConsoleApprover asks the serve operator on a terminal before a page may connect.
// 同時に複数のページから来た場合は 1 件ずつ聞く。
type ConsoleApprover struct {
	mu    sync.Mutex
	in    io.Reader
	out   io.Writer
	once  sync.Once
	lines chan string
}

// NewConsoleApprover reads answers from in and writes prompts to out.
// in is not read until the first prompt.
func NewConsoleApprover(in io.Reader, out io.Writer) *ConsoleApprover {
	return &ConsoleApprover{in: in, out: out, lines: make(chan string)}
}

func (a *ConsoleApprover) start() {
	go func() {
		sc := bufio.NewScanner(a.in)
		for sc.Scan() {
			a.lines <- sc.Text()
		}
		close(a.lines)
	}()
}

// Approve only accepts an explicit "y" / "yes"; EOF and ctx cancellation reject.
func (a *ConsoleApprover) Approve(ctx context.Context, address string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.once.Do(a.start)

	_, _ = fmt.Fprintf(a.out, "Allow the portal page to connect wallet %s? [y/N]: ", address)
	select {
	case line, ok := <-a.lines:
		if !ok {
			log.Printf("[wallet] approval input closed; rejecting %s", maskShort(address))
			return false
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true
		default:
			return false
		}
	case <-ctx.Done():
		_, _ = fmt.Fprintln(a.out)
		return false
	}
}

// ApproverFor maps the wallet.approve policy onto an Approver.
func ApproverFor(policy string, in io.Reader, out io.Writer) (Approver, error) {
	switch strings.ToLower(strings.TrimSpace(policy)) {
	case "auto":
		return AutoApprover, nil
	case "deny":
		return DenyApprover, nil
	case "", "prompt":
		return NewConsoleApprover(in, out).Approve, nil
	default:
		return nil, fmt.Errorf("solana wallet: unknown approve policy %q", policy)
	}
}
