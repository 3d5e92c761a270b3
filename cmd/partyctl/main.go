// Command partyctl runs a two-party demo instance of the secret-share
// engine: both sides dial/listen over TCP, bootstrap real IKNP-based RCOT in
// both directions, compute one AND gate on each party's own input bit, and
// reveal the result to party 0.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/summitto/boolmpc/comm"
	"github.com/summitto/boolmpc/engine"
	"github.com/summitto/boolmpc/entropy"
	"github.com/summitto/boolmpc/iknp"
	"github.com/summitto/boolmpc/metrics"
	"github.com/summitto/boolmpc/tuplegen"
)

const tupleBufferSize = 1024

// channelNames fixes the order both parties open their three logical
// channels in: each comm.Factory.Create call here costs one fresh TCP dial
// (party 1) or accept (party 0), so the two sides must walk this list in
// lockstep or they'll wire up the wrong sockets to the wrong roles.
var channelNames = []string{"engine", "iknp-party0-sender", "iknp-party1-sender"}

func main() {
	partyID := flag.Int("party-id", -1, "this process's party id, 0 or 1")
	listenAddr := flag.String("listen", "", "TCP address to listen on (party 0)")
	dialAddr := flag.String("dial", "", "TCP address to dial (party 1)")
	input := flag.Int("input", 0, "this party's input bit (0 or 1)")
	flag.Parse()

	if *partyID != 0 && *partyID != 1 {
		log.Fatalln("party-id must be 0 or 1")
	}
	if (*partyID == 0) == (*listenAddr == "") {
		log.Fatalln("party 0 must set -listen, party 1 must set -dial")
	}

	ctx, cancel := context.WithCancel(context.Background())
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		log.Println("interrupted, aborting...")
		cancel()
	}()
	defer cancel()

	peerID := 1 - *partyID
	factory, closeFactory, err := dialOrListen(*partyID, *listenAddr, *dialAddr)
	if err != nil {
		log.Fatalln("establishing transport:", err)
	}
	defer closeFactory()

	agents := make(map[string]*comm.Agent, len(channelNames))
	for _, name := range channelNames {
		agent, err := factory.Create(peerID, name)
		if err != nil {
			log.Fatalln("opening channel", name, ":", err)
		}
		agents[name] = agent
	}

	rec := metrics.NewCounting()
	eng, gen, err := setupTwoParty(*partyID, peerID, agents, rec)
	if err != nil {
		log.Fatalln("setting up engine:", err)
	}
	defer gen.Close()

	result, err := runAndGate(ctx, eng, *partyID, *input&1)
	if err != nil {
		log.Fatalln("running protocol:", err)
	}

	if *partyID == 0 {
		log.Println("AND result:", result)
	}
	sent, received := eng.TrafficStatistics()
	log.Printf("traffic: sent=%d received=%d", sent, received)
}

// dialOrListen builds the comm.Factory for this run: party 0 listens once
// and hands out one accepted connection per Create call; party 1 dials
// fresh each call.
func dialOrListen(partyID int, listenAddr, dialAddr string) (comm.Factory, func() error, error) {
	if partyID == 0 {
		ln, err := net.Listen("tcp", listenAddr)
		if err != nil {
			return nil, nil, fmt.Errorf("listening on %s: %w", listenAddr, err)
		}
		log.Println("waiting for party 1 on", listenAddr)
		return comm.NewTCPListenFactory(1, ln), ln.Close, nil
	}
	log.Println("dialing party 0 at", dialAddr)
	return comm.NewTCPDialFactory(0, dialAddr), func() error { return nil }, nil
}

// setupTwoParty bootstraps the engine's input-mask channel and both IKNP
// instances (one per RCOT direction) over the channels opened in main, then
// builds the TwoPartyGenerator and Engine on top of them.
func setupTwoParty(myID, peerID int, agents map[string]*comm.Agent, rec metrics.Recorder) (*engine.Engine, *tuplegen.TwoPartyGenerator, error) {
	engineAgent := agents["engine"]
	party0SenderAgent := agents["iknp-party0-sender"]
	party1SenderAgent := agents["iknp-party1-sender"]

	delta := entropy.System.Block().SetLsbTo(1)

	var gen *tuplegen.TwoPartyGenerator
	if myID == 0 {
		mySender, err := iknp.NewSender(party0SenderAgent, delta, entropy.System)
		if err != nil {
			return nil, nil, fmt.Errorf("bootstrapping party-0 iknp sender: %w", err)
		}
		myReceiver, err := iknp.NewReceiver(party1SenderAgent, entropy.System)
		if err != nil {
			return nil, nil, fmt.Errorf("bootstrapping party-1 iknp receiver: %w", err)
		}
		gen = tuplegen.NewTwoPartyGenerator(
			iknp.SenderRCOT{Sender: mySender}, iknp.ReceiverRCOT{Receiver: myReceiver},
			party0SenderAgent, party1SenderAgent, delta, tupleBufferSize, rec,
		)
	} else {
		myReceiver, err := iknp.NewReceiver(party0SenderAgent, entropy.System)
		if err != nil {
			return nil, nil, fmt.Errorf("bootstrapping party-0 iknp receiver: %w", err)
		}
		mySender, err := iknp.NewSender(party1SenderAgent, delta, entropy.System)
		if err != nil {
			return nil, nil, fmt.Errorf("bootstrapping party-1 iknp sender: %w", err)
		}
		gen = tuplegen.NewTwoPartyGenerator(
			iknp.SenderRCOT{Sender: mySender}, iknp.ReceiverRCOT{Receiver: myReceiver},
			party1SenderAgent, party0SenderAgent, delta, tupleBufferSize, rec,
		)
	}

	eng, err := engine.New(myID, 2, gen, map[int]*comm.Agent{peerID: engineAgent}, entropy.System, rec)
	if err != nil {
		return nil, nil, fmt.Errorf("constructing engine: %w", err)
	}
	return eng, gen, nil
}

// runAndGate computes (inputBit AND peerInputBit) and reveals the result to
// party 0.
func runAndGate(ctx context.Context, eng *engine.Engine, myID, inputBit int) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	var myShare, peerShare int
	if myID == 0 {
		myShare = eng.SetInput(0, &inputBit)
		peerShare = eng.SetInput(1, nil)
	} else {
		myShare = eng.SetInput(1, &inputBit)
		peerShare = eng.SetInput(0, nil)
	}

	idx := eng.ScheduleAND(myShare, peerShare)
	if err := eng.ExecuteScheduledAND(); err != nil {
		return 0, fmt.Errorf("executing scheduled AND: %w", err)
	}
	resultShare := eng.GetANDResult(idx)

	revealed, err := eng.RevealToParty(0, []int{resultShare})
	if err != nil {
		return 0, fmt.Errorf("revealing result to party 0: %w", err)
	}
	return revealed[0], nil
}
