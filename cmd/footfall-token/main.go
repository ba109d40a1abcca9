// footfall-token prints the presence token for one or more hardware
// addresses under a given session salt. Handy when cross-checking a journal
// against a capture: replay with -salt, then look tokens up here
package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"net"
	"os"

	"footfall/internal/core/token"
)

func main() {
	saltHex := flag.String("salt", "", "8 hex chars; omit for a random session salt")
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: footfall-token [-salt deadbeef] <mac> [mac...]")
		os.Exit(2)
	}

	var salt token.Salt
	if *saltHex == "" {
		salt = token.MustSalt()
		fmt.Printf("salt\t%s\n", hex.EncodeToString(salt[:]))
	} else {
		b, err := hex.DecodeString(*saltHex)
		if err != nil || len(b) != token.SaltLen {
			fmt.Fprintf(os.Stderr, "salt must be %d hex-encoded bytes\n", token.SaltLen)
			os.Exit(2)
		}
		copy(salt[:], b)
	}

	h := token.NewHasher(salt)
	for _, arg := range flag.Args() {
		hw, err := net.ParseMAC(arg)
		if err != nil || len(hw) != token.IDLen {
			fmt.Fprintf(os.Stderr, "%s\tnot a 6-byte hardware address\n", arg)
			os.Exit(1)
		}
		var id [token.IDLen]byte
		copy(id[:], hw)
		fmt.Printf("%s\t%s\n", arg, h.Token(id))
	}
}
