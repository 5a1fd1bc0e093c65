/*
flag Package set up cli flags shared across services

Usage:

	Flags listed in this package are shared across boundaries and service-agnostic
	For service dependent flags please define in their respective package
*/

package flag

import (
	"flag"
)

const (
	BFFServer = "bff_server"
)

var (
	IsDevelopment *bool
	ServiceName   *string
)

func init() {
	IsDevelopment = flag.Bool("dev", true, "set to true if the current run is for development. default value is true")
	ServiceName = flag.String("service", BFFServer, "name of the service, used to tag log entries")
}

// ParseFlags parses the shared command line flags. Must be called once from
// main, never from init, so the flag set composes with flags other packages
// (including the test framework) register.
func ParseFlags() {
	flag.Parse()
}
