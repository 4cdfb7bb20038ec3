package twofactor_test

import (
	"fmt"

	"github.com/MrEthical07/goSession/twofactor"
)

func ExampleSanitizeBackupInput() {
	for _, raw := range []string{"1234", "12345678", "1234-56789"} {
		fmt.Println(twofactor.SanitizeBackupInput(raw))
	}
	// Output:
	// 1234-
	// 1234-5678
	// 1234-5678
}

func ExampleReduce() {
	s := twofactor.State{Mode: twofactor.ModeTOTP}
	s = twofactor.Reduce(s, twofactor.Input{Value: "12a34"})
	s = twofactor.Reduce(s, twofactor.Submit{})
	s = twofactor.Reduce(s, twofactor.CheckFormat{})
	fmt.Printf("%s %q %q\n", s.Phase, s.Input, s.Error)
	// Output:
	// editing "1234" "code must be 6 digits"
}
