package domain

// Operation is the kind of money movement recorded by a ledger entry.
type Operation string

const (
	OperationIn    Operation = "in"
	OperationOut   Operation = "out"
	OperationTrans Operation = "trans"
)

// Operations lists the valid operations.
var Operations = []Operation{OperationIn, OperationOut, OperationTrans}

// IsValid reports whether op is one of Operations.
func (op Operation) IsValid() bool {
	switch op {
	case OperationIn, OperationOut, OperationTrans:
		return true
	}

	return false
}

// IsOperation reports whether the entry records an operation of the given kind.
func IsOperation(e *LedgerEntry, kind Operation) bool {
	return e != nil && e.Operation == kind
}
