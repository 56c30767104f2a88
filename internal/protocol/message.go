package protocol

import (
	"bufio"
	"fmt"

	"github.com/yndnr/dirmesh-go/internal/core/domain"
)

// Request is one decoded client request. Fields an operation does not use
// stay empty.
type Request struct {
	Op          domain.Op
	Identity    string
	Port        string // CONNECT
	Name        string // PUBLISH, DELETE
	Description string // PUBLISH
	Target      string // LIST_CONTENT
}

// argField names one argument field of a request.
type argField struct {
	width int
	get   func(*Request) *string
}

var (
	identityArg    = argField{IdentityWidth, func(r *Request) *string { return &r.Identity }}
	portArg        = argField{PortWidth, func(r *Request) *string { return &r.Port }}
	nameArg        = argField{NameWidth, func(r *Request) *string { return &r.Name }}
	descriptionArg = argField{DescriptionWidth, func(r *Request) *string { return &r.Description }}
	targetArg      = argField{IdentityWidth, func(r *Request) *string { return &r.Target }}
)

// opArgs lists the argument fields of each operation in wire order.
var opArgs = map[domain.Op][]argField{
	domain.OpRegister:    {identityArg},
	domain.OpUnregister:  {identityArg},
	domain.OpConnect:     {identityArg, portArg},
	domain.OpDisconnect:  {identityArg},
	domain.OpPublish:     {identityArg, nameArg, descriptionArg},
	domain.OpDelete:      {identityArg, nameArg},
	domain.OpListUsers:   {identityArg},
	domain.OpListContent: {identityArg, targetArg},
}

// ReadOp reads the operation token.
func ReadOp(r *bufio.Reader) (domain.Op, error) {
	tok, err := ReadField(r, OpWidth)
	if err != nil {
		return domain.OpUnspecified, err
	}
	op, ok := domain.ParseOp(tok)
	if !ok {
		return domain.OpUnspecified, fmt.Errorf("%w: %q", ErrUnknownOp, tok)
	}
	return op, nil
}

// ReadArgs reads the argument fields of op.
func ReadArgs(r *bufio.Reader, op domain.Op) (Request, error) {
	args, ok := opArgs[op]
	if !ok {
		return Request{}, ErrUnknownOp
	}
	req := Request{Op: op}
	for _, a := range args {
		v, err := ReadField(r, a.width)
		if err != nil {
			return Request{}, err
		}
		*a.get(&req) = v
	}
	return req, nil
}

// WriteRequest writes the token and argument fields of req.
func WriteRequest(w *bufio.Writer, req Request) error {
	args, ok := opArgs[req.Op]
	if !ok {
		return ErrUnknownOp
	}
	if err := WriteField(w, req.Op.String(), OpWidth); err != nil {
		return err
	}
	for _, a := range args {
		if err := WriteField(w, *a.get(&req), a.width); err != nil {
			return err
		}
	}
	return nil
}

// WriteSession writes one LIST_USERS record.
func WriteSession(w *bufio.Writer, s domain.Session) error {
	if err := WritePadded(w, s.Identity, IdentityWidth); err != nil {
		return err
	}
	if err := WritePadded(w, s.Endpoint.IP, IPWidth); err != nil {
		return err
	}
	return WritePadded(w, s.Endpoint.Port, PortWidth)
}

// ReadSession reads one LIST_USERS record.
func ReadSession(r *bufio.Reader) (domain.Session, error) {
	var s domain.Session
	var err error
	if s.Identity, err = ReadPadded(r, IdentityWidth); err != nil {
		return s, err
	}
	if s.Endpoint.IP, err = ReadPadded(r, IPWidth); err != nil {
		return s, err
	}
	s.Endpoint.Port, err = ReadPadded(r, PortWidth)
	return s, err
}

// WriteEntry writes one LIST_CONTENT record.
func WriteEntry(w *bufio.Writer, e domain.CatalogEntry) error {
	if err := WritePadded(w, e.Name, NameWidth); err != nil {
		return err
	}
	return WritePadded(w, e.Description, DescriptionWidth)
}

// ReadEntry reads one LIST_CONTENT record.
func ReadEntry(r *bufio.Reader) (domain.CatalogEntry, error) {
	var e domain.CatalogEntry
	var err error
	if e.Name, err = ReadPadded(r, NameWidth); err != nil {
		return e, err
	}
	e.Description, err = ReadPadded(r, DescriptionWidth)
	return e, err
}

// Response is a decoded server reply.
type Response struct {
	Code     byte
	Status   domain.Status
	Sessions []domain.Session      // LIST_USERS
	Entries  []domain.CatalogEntry // LIST_CONTENT
}

// ReadResponse reads the reply to a request for op, decoding the status with
// codes. Records follow only for a successful listing.
func ReadResponse(r *bufio.Reader, op domain.Op, codes Codes) (Response, error) {
	code, err := r.ReadByte()
	if err != nil {
		return Response{}, err
	}
	st, err := codes.Decode(op, code)
	if err != nil {
		return Response{Code: code}, err
	}
	resp := Response{Code: code, Status: st}
	if st != domain.StatusOK || (op != domain.OpListUsers && op != domain.OpListContent) {
		return resp, nil
	}

	n, err := ReadCount(r)
	if err != nil {
		return resp, err
	}
	for i := 0; i < n; i++ {
		if op == domain.OpListUsers {
			s, err := ReadSession(r)
			if err != nil {
				return resp, err
			}
			resp.Sessions = append(resp.Sessions, s)
			continue
		}
		e, err := ReadEntry(r)
		if err != nil {
			return resp, err
		}
		resp.Entries = append(resp.Entries, e)
	}
	return resp, nil
}
