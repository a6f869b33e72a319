package listctl

import "fmt"

// DialogKind names one of the three dialogs a controller drives.
type DialogKind string

const (
	DialogAdd    DialogKind = "add"
	DialogEdit   DialogKind = "edit"
	DialogDelete DialogKind = "delete"
)

// ParseDialogKind validates a dialog name.
func ParseDialogKind(s string) (DialogKind, error) {
	switch k := DialogKind(s); k {
	case DialogAdd, DialogEdit, DialogDelete:
		return k, nil
	default:
		return "", fmt.Errorf("listctl: unknown dialog %q", s)
	}
}

// DialogState is the lifecycle Closed → Open → (Submitting) → Closed.
type DialogState string

const (
	DialogClosed     DialogState = "closed"
	DialogOpen       DialogState = "open"
	DialogSubmitting DialogState = "submitting"
)

// Dialog holds the state of one dialog and the last submit error.
type Dialog struct {
	State DialogState `json:"state"`
	Error string      `json:"error,omitempty"`
}

// Dialogs groups the add, edit and delete dialogs.
type Dialogs struct {
	Add    Dialog `json:"add"`
	Edit   Dialog `json:"edit"`
	Delete Dialog `json:"delete"`
}

func closedDialogs() Dialogs {
	return Dialogs{
		Add:    Dialog{State: DialogClosed},
		Edit:   Dialog{State: DialogClosed},
		Delete: Dialog{State: DialogClosed},
	}
}

func (d *Dialogs) get(kind DialogKind) *Dialog {
	switch kind {
	case DialogEdit:
		return &d.Edit
	case DialogDelete:
		return &d.Delete
	default:
		return &d.Add
	}
}

func (d *Dialogs) open(kind DialogKind) {
	*d.get(kind) = Dialog{State: DialogOpen}
}

func (d *Dialogs) close(kind DialogKind) {
	*d.get(kind) = Dialog{State: DialogClosed}
}

func (d *Dialogs) submitting(kind DialogKind) {
	dlg := d.get(kind)
	dlg.State = DialogSubmitting
	dlg.Error = ""
}

// fail returns a submitting dialog to open and records the error.
func (d *Dialogs) fail(kind DialogKind, err error) {
	dlg := d.get(kind)
	dlg.State = DialogOpen
	dlg.Error = err.Error()
}

// normalise replaces unknown or transient states restored from storage.
func (d *Dialogs) normalise() {
	for _, kind := range []DialogKind{DialogAdd, DialogEdit, DialogDelete} {
		dlg := d.get(kind)
		switch dlg.State {
		case DialogOpen:
		case DialogSubmitting:
			dlg.State = DialogOpen
		default:
			*dlg = Dialog{State: DialogClosed}
		}
	}
}
