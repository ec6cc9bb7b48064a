package core

// Fingerprint identifies one (account, secret, database, host, port)
// combination. It is a one-way digest and safe to log.
type Fingerprint string

// Short returns an abbreviated form for logs and tables.
func (f Fingerprint) Short() string {
	if len(f) <= 12 {
		return string(f)
	}
	return string(f[:12])
}

// String implements fmt.Stringer.
func (f Fingerprint) String() string {
	return string(f)
}

// Credentials holds everything needed to reach one database.
type Credentials struct {
	// Adapter names the engine adapter (e.g. "mysql", "postgres").
	Adapter  string
	User     string
	Password string
	Host     string
	Port     int
	Database string

	// Options contains additional driver-specific options.
	Options map[string]string
}
