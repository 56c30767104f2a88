package dirserver

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"time"

	"github.com/yndnr/dirmesh-go/internal/core/domain"
	"github.com/yndnr/dirmesh-go/internal/protocol"
	"github.com/yndnr/dirmesh-go/internal/telemetry/logger"
)

// State is a dispatcher protocol state.
type State uint8

const (
	StateAwaitOperation State = iota
	StateAwaitArguments
	StateExecute
	StateRespondStatus
	StateRespondPayload
	StateClosed
)

var stateNames = [...]string{
	StateAwaitOperation: "await_operation",
	StateAwaitArguments: "await_arguments",
	StateExecute:        "execute",
	StateRespondStatus:  "respond_status",
	StateRespondPayload: "respond_payload",
	StateClosed:         "closed",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// result is the outcome of an executed request.
type result struct {
	status   domain.Status
	err      error
	sessions []domain.Session
	entries  []domain.CatalogEntry
}

// dispatcher handles the single request carried by one connection.
type dispatcher struct {
	conn   net.Conn
	br     *bufio.Reader
	bw     *bufio.Writer
	peerIP string
	srv    *Server
	log    *slog.Logger

	state State
	op    domain.Op
}

func newDispatcher(c net.Conn, peerIP string, srv *Server) *dispatcher {
	return &dispatcher{
		conn:   c,
		br:     bufio.NewReaderSize(c, protocol.OpWidth+protocol.IdentityWidth),
		bw:     bufio.NewWriter(c),
		peerIP: peerIP,
		srv:    srv,
		log:    srv.logger,
	}
}

func (d *dispatcher) run(ctx context.Context) {
	reqID := domain.NewRequestID()
	ctx = logger.WithRequestID(logger.WithLogger(ctx, d.srv.logger), reqID)
	d.log = logger.L(ctx).With("remote", d.peerIP)

	cfg := d.srv.cfg
	if cfg.ReadTimeout > 0 {
		if err := d.conn.SetReadDeadline(time.Now().Add(cfg.ReadTimeout)); err != nil {
			d.fail(err)
			return
		}
	}

	d.state = StateAwaitOperation
	op, err := protocol.ReadOp(d.br)
	if err != nil {
		d.fail(err)
		return
	}
	d.op = op

	d.state = StateAwaitArguments
	req, err := protocol.ReadArgs(d.br, op)
	if err != nil {
		d.fail(err)
		return
	}

	d.state = StateExecute
	start := time.Now()
	res := d.execute(ctx, req)
	d.srv.metrics.ObserveRequest(op.String(), res.status.String(), time.Since(start))
	if res.status == domain.StatusProtocolFailure {
		d.fail(res.err)
		return
	}
	if res.status == domain.StatusInternalError {
		d.log.Error("request failed", "op", op.String(), "error", res.err)
	}

	if cfg.WriteTimeout > 0 {
		if err := d.conn.SetWriteDeadline(time.Now().Add(cfg.WriteTimeout)); err != nil {
			d.fail(err)
			return
		}
	}

	d.state = StateRespondStatus
	if err := d.bw.WriteByte(cfg.Codes.Encode(op, res.status)); err != nil {
		d.fail(err)
		return
	}
	if res.status == domain.StatusOK && (op == domain.OpListUsers || op == domain.OpListContent) {
		d.state = StateRespondPayload
		if err := d.writePayload(res); err != nil {
			d.fail(err)
			return
		}
	}
	if err := d.bw.Flush(); err != nil {
		d.fail(err)
		return
	}

	d.state = StateClosed
	d.log.Debug("request served", "op", op.String(), "status", res.status.String())
}

func (d *dispatcher) execute(ctx context.Context, req protocol.Request) result {
	var res result
	switch req.Op {
	case domain.OpRegister:
		res.err = d.srv.dir.Register(ctx, req.Identity)
	case domain.OpUnregister:
		res.err = d.srv.dir.Unregister(ctx, req.Identity)
	case domain.OpConnect:
		res.err = d.srv.dir.Connect(ctx, req.Identity, domain.Endpoint{IP: d.peerIP, Port: req.Port})
	case domain.OpDisconnect:
		res.err = d.srv.dir.Disconnect(ctx, req.Identity)
	case domain.OpPublish:
		res.err = d.srv.dir.Publish(ctx, req.Identity, domain.CatalogEntry{Name: req.Name, Description: req.Description})
	case domain.OpDelete:
		res.err = d.srv.dir.Delete(ctx, req.Identity, req.Name)
	case domain.OpListUsers:
		res.sessions, res.err = d.srv.dir.ListUsers(ctx, req.Identity)
	case domain.OpListContent:
		res.entries, res.err = d.srv.dir.ListContent(ctx, req.Identity, req.Target)
	default:
		res.err = protocol.ErrUnknownOp
	}
	res.status = domain.StatusOf(res.err)
	if errors.Is(res.err, protocol.ErrProtocol) {
		res.status = domain.StatusProtocolFailure
	}
	return res
}

func (d *dispatcher) writePayload(res result) error {
	if d.op == domain.OpListUsers {
		if err := protocol.WriteCount(d.bw, len(res.sessions)); err != nil {
			return err
		}
		for _, s := range res.sessions {
			if err := protocol.WriteSession(d.bw, s); err != nil {
				return err
			}
		}
		return nil
	}
	if err := protocol.WriteCount(d.bw, len(res.entries)); err != nil {
		return err
	}
	for _, e := range res.entries {
		if err := protocol.WriteEntry(d.bw, e); err != nil {
			return err
		}
	}
	return nil
}

// fail ends the exchange. Malformed requests on a healthy connection get a
// protocol failure status when RejectMalformed is set.
func (d *dispatcher) fail(err error) {
	failed := d.state
	d.state = StateClosed
	d.srv.metrics.ProtocolError(failed.String())

	if errors.Is(err, io.EOF) && failed == StateAwaitOperation {
		d.log.Debug("connection closed before request")
		return
	}
	d.log.Debug("connection dropped", "state", failed.String(), "op", d.op.String(), "error", err)

	if !d.srv.cfg.RejectMalformed || !malformed(err) {
		return
	}
	if d.srv.cfg.WriteTimeout > 0 {
		_ = d.conn.SetWriteDeadline(time.Now().Add(d.srv.cfg.WriteTimeout))
	}
	_ = d.bw.WriteByte(d.srv.cfg.Codes.Encode(d.op, domain.StatusProtocolFailure))
	_ = d.bw.Flush()
}

// malformed reports whether err is a request the peer could be told about,
// as opposed to a broken or timed-out connection.
func malformed(err error) bool {
	return errors.Is(err, protocol.ErrProtocol) || errors.Is(err, domain.ErrInvalidArgument)
}
