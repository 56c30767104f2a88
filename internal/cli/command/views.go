package command

import (
	"time"

	"github.com/yndnr/dirmesh-go/internal/cli/output"
	"github.com/yndnr/dirmesh-go/internal/core/domain"
	"github.com/yndnr/dirmesh-go/internal/infra/buildinfo"
	"github.com/yndnr/dirmesh-go/internal/storage/journal"
)

// SessionView is one LIST_USERS record.
type SessionView struct {
	User string `json:"user" yaml:"user"`
	IP   string `json:"ip" yaml:"ip"`
	Port string `json:"port" yaml:"port"`
}

// SessionList renders as a USER/IP/PORT table.
type SessionList []SessionView

func newSessionList(sessions []domain.Session) SessionList {
	list := make(SessionList, 0, len(sessions))
	for _, s := range sessions {
		list = append(list, SessionView{User: s.Identity, IP: s.Endpoint.IP, Port: s.Endpoint.Port})
	}
	return list
}

// Table implements output.Tabler.
func (l SessionList) Table() *output.Table {
	t := output.NewTable("USER", "IP", "PORT")
	for _, s := range l {
		t.AddRow(s.User, s.IP, s.Port)
	}
	return t
}

// EntryView is one LIST_CONTENT record.
type EntryView struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
}

// EntryList renders as a NAME/DESCRIPTION table.
type EntryList []EntryView

func newEntryList(entries []domain.CatalogEntry) EntryList {
	list := make(EntryList, 0, len(entries))
	for _, e := range entries {
		list = append(list, EntryView(e))
	}
	return list
}

// Table implements output.Tabler.
func (l EntryList) Table() *output.Table {
	t := output.NewTable("NAME", "DESCRIPTION")
	for _, e := range l {
		t.AddRow(e.Name, e.Description)
	}
	return t
}

// JournalView is one journaled operation.
type JournalView struct {
	Time     time.Time `json:"time" yaml:"time"`
	Op       string    `json:"op" yaml:"op"`
	Identity string    `json:"identity" yaml:"identity"`
	Name     string    `json:"name,omitempty" yaml:"name,omitempty"`
	Status   string    `json:"status" yaml:"status"`
}

// JournalList renders as a table in journal order.
type JournalList []JournalView

func newJournalView(e *journal.Entry) JournalView {
	return JournalView{
		Time:     e.Time.UTC(),
		Op:       e.Op.String(),
		Identity: e.Identity,
		Name:     e.Name,
		Status:   e.Status.String(),
	}
}

// Table implements output.Tabler.
func (l JournalList) Table() *output.Table {
	t := output.NewTable("TIME", "OP", "IDENTITY", "NAME", "STATUS")
	for _, e := range l {
		t.AddRow(e.Time.Format(time.RFC3339Nano), e.Op, e.Identity, e.Name, e.Status)
	}
	return t
}

// versionView renders build information as a field/value table.
type versionView buildinfo.Info

// Table implements output.Tabler.
func (v versionView) Table() *output.Table {
	t := output.NewTable("FIELD", "VALUE")
	t.AddRow("version", v.Version)
	t.AddRow("commit", v.Commit)
	t.AddRow("build_time", v.BuildTime)
	t.AddRow("go_version", v.GoVersion)
	t.AddRow("platform", v.Platform)
	return t
}
