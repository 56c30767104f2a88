package command

import (
	"context"

	"github.com/yndnr/dirmesh-go/internal/cli/connection"
	"github.com/yndnr/dirmesh-go/internal/cli/output"
	"github.com/yndnr/dirmesh-go/internal/core/domain"
	"github.com/yndnr/dirmesh-go/internal/protocol"
)

// runner sends one request and prints its outcome.
type runner struct {
	client  *connection.Client
	printer *output.Printer
	// structured suppresses the outcome line of a successful listing so
	// json and yaml output stays parseable.
	structured bool
}

// run performs req. It returns ErrFailed for a failure status and the
// transport error when the exchange did not complete; both cases print the
// failure line first.
func (r *runner) run(ctx context.Context, req protocol.Request) (protocol.Response, error) {
	resp, err := r.client.Do(ctx, req)
	if err != nil {
		r.printer.Failure(req.Op.String() + " FAIL")
		return resp, err
	}

	line, ok := Outcome(req.Op, resp.Status)
	if !ok {
		r.printer.Failure(line)
		return resp, ErrFailed
	}

	switch req.Op {
	case domain.OpListUsers:
		if !r.structured {
			r.printer.Success(line)
		}
		return resp, r.printer.Result(newSessionList(resp.Sessions))
	case domain.OpListContent:
		if !r.structured {
			r.printer.Success(line)
		}
		return resp, r.printer.Result(newEntryList(resp.Entries))
	}
	r.printer.Success(line)
	return resp, nil
}
