package ratelimit_test

import (
	"fmt"
	"time"

	"loadgrade/internal/ratelimit"
)

func ExampleNewThrottle() {
	// At most one re-analysis every two seconds.
	th := ratelimit.NewThrottle(2 * time.Second)

	fmt.Println(th.Allow(), th.Allow())
	// Output: true false
}
