package simulation

import (
	"fmt"
	"io"
	"strings"

	"github.com/sarchlab/cachesim/mem/trace"
	"github.com/sarchlab/cachesim/sim/hooking"
)

// VerboseHook prints one line per data record, such as
//
//	M 20,1 miss eviction hit
type VerboseHook struct {
	w   io.Writer
	err error
}

// NewVerboseHook creates a hook that writes to w.
func NewVerboseHook(w io.Writer) *VerboseHook {
	return &VerboseHook{w: w}
}

// Err returns the first write error, if any.
func (h *VerboseHook) Err() error {
	return h.err
}

// Func prints the record if ctx is a processed data record.
func (h *VerboseHook) Func(ctx hooking.HookCtx) {
	if ctx.Pos != HookPosRecordProcessed || h.err != nil {
		return
	}

	detail := ctx.Detail.(RecordDetail)
	if detail.Record.Kind == trace.Instruction {
		return
	}

	outcomes := make([]string, len(detail.Outcomes))
	for i, o := range detail.Outcomes {
		outcomes[i] = o.String()
	}

	_, h.err = fmt.Fprintf(h.w, "%s %x,%d %s\n",
		detail.Record.Kind,
		detail.Record.Address,
		detail.Record.Size,
		strings.Join(outcomes, " "))
}
