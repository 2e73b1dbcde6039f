package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/shopspring/decimal"

	"github.com/pkaraca/stockmatch/internal/config"
	"github.com/pkaraca/stockmatch/internal/transport"
)

// placeorder is an interactive publisher: it prompts for order fields and
// puts them on the orders subject for the matching daemon.
func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}

	nc, err := nats.Connect(cfg.NATS.URL, nats.Name("stockmatch-placeorder"))
	if err != nil {
		log.Fatal(err)
	}
	defer nc.Close()

	in := bufio.NewScanner(os.Stdin)
	for {
		side, ok := prompt(in, "Enter order side (buy/sell): ")
		if !ok {
			return
		}
		instrument, ok := prompt(in, "Enter instrument symbol (e.g. AAPL, TSLA): ")
		if !ok {
			return
		}
		priceStr, ok := prompt(in, "Enter price: ")
		if !ok {
			return
		}
		qtyStr, ok := prompt(in, "Enter quantity: ")
		if !ok {
			return
		}

		if _, err := decimal.NewFromString(priceStr); err != nil {
			fmt.Printf("bad price %q: %v\n", priceStr, err)
			continue
		}
		qty, err := strconv.ParseInt(qtyStr, 10, 64)
		if err != nil || qty <= 0 {
			fmt.Printf("bad quantity %q\n", qtyStr)
			continue
		}

		msg := transport.OrderMessage{
			ID:         uuid.NewString(),
			Instrument: strings.ToUpper(instrument),
			Side:       strings.ToLower(side),
			Price:      priceStr,
			Quantity:   qty,
		}
		data, err := json.Marshal(msg)
		if err != nil {
			log.Fatal(err)
		}
		if err := nc.Publish(cfg.NATS.OrdersSubject, data); err != nil {
			log.Fatal(err)
		}
		if err := nc.Flush(); err != nil {
			log.Fatal(err)
		}
		fmt.Printf("Order placed: %s %s %d @ %s (id %s)\n",
			msg.Side, msg.Instrument, msg.Quantity, msg.Price, msg.ID)
	}
}

func prompt(in *bufio.Scanner, label string) (string, bool) {
	fmt.Print(label)
	if !in.Scan() {
		return "", false
	}
	return strings.TrimSpace(in.Text()), true
}
