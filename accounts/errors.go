package accounts

type (
	ValidationError struct {
		Reason string
	}

	Forbidden struct {
		Reason string
	}
)

func (v ValidationError) Error() string {
	return v.Reason
}

func (f Forbidden) Error() string {
	return f.Reason
}
