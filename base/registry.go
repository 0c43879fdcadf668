package base

// Registration is a common information about the source driver.
type Registration struct {
	Name  string // unique name
	Title string // human-readable name
	Local bool   // reads from local disk instead of a remote server
}

var _ error = ErrRegistered{}

// ErrRegistered is thrown when trying to register a source driver with a name that is already taken.
type ErrRegistered struct {
	Name string
}

func (e ErrRegistered) Error() string {
	return "source driver already registered: " + e.Name
}
