// Command token prints a development access token signed with the server's
// secret key. Server flags and environment apply; -u sets the subject.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/dmitrijs2005/daybook/internal/flagx"
	"github.com/dmitrijs2005/daybook/internal/server/auth"
	"github.com/dmitrijs2005/daybook/internal/server/config"
)

func main() {

	cfg := config.LoadConfig()

	fs := flag.NewFlagSet("token", flag.ExitOnError)
	subject := fs.String("u", "dev", "token subject (owner of the synced entities)")
	_ = fs.Parse(flagx.FilterArgs(os.Args[1:], []string{"-u"}))

	if cfg.SecretKey == "" {
		log.Fatal("secret key is empty, the server does not check tokens")
	}

	tok, err := auth.GenerateToken(*subject, []byte(cfg.SecretKey), cfg.AccessTokenValidityDuration)
	if err != nil {
		log.Fatalf("%v", err)
	}

	fmt.Println(tok)

}
