package version

import "fmt"

// Number identifies a released build.
type Number struct {
	Major int
	Minor int
	Patch int
}

func (n Number) String() string {
	return fmt.Sprintf("%d.%d.%d", n.Major, n.Minor, n.Patch)
}

// App is the version embedded in the current binary.
var App = Number{Major: 0, Minor: 3, Patch: 0}
