// Command sweeptoken prints an HS256 bearer token for GET /api/cron, signed
// with the server's sweep secret and valid for the configured duration.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/dmitrijs2005/paaster/internal/flagx"
	"github.com/dmitrijs2005/paaster/internal/server/auth"
	"github.com/dmitrijs2005/paaster/internal/server/config"
)

func main() {

	cfg := config.LoadConfig()

	subject := "cron"
	fs := flag.NewFlagSet("sweeptoken", flag.ContinueOnError)
	fs.StringVar(&subject, "sub", subject, "token subject")
	_ = fs.Parse(flagx.FilterArgs(os.Args[1:], []string{"-sub"}))

	token, err := auth.GenerateToken(subject, []byte(cfg.SweepSecret), cfg.SweepTokenValidityDuration)
	if err != nil {
		log.Fatalf("%v", err)
	}

	fmt.Println(token)

}
