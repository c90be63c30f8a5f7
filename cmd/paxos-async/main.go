// Command paxos-async runs the Paxos demonstration scenario on the
// asynchronous backend with Light-class actors and prints the consensus value.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/amp-labs/amp-actors/asyncsystem"
	"github.com/amp-labs/amp-actors/logger"
	"github.com/amp-labs/amp-actors/paxos"
)

func main() {
	logger.Configure(logger.Options{
		Subsystem: "paxos-async",
		MinLevel:  slog.LevelInfo,
	})

	const (
		proposers = 40
		acceptors = 100
		learners  = 10
		modulus   = 17
	)

	initial := make([]string, 0, proposers)
	for i := range proposers {
		initial = append(initial, fmt.Sprintf("The answer is %d", i%modulus))
	}

	cfg := paxos.Config[string]{
		ProposerValues: initial,
		Acceptors:      acceptors,
		Learners:       learners,
		Timeout:        10 * time.Millisecond,
		BallotRange:    50,
	}

	fmt.Println("Building the system...")

	sys := paxos.SetupAsync(cfg, asyncsystem.ClassLight, asyncsystem.WithName("paxos-async"))

	fmt.Println("Running...")

	values, err := sys.Run(context.Background())
	if err != nil {
		logger.Error(context.Background(), "run failed", "error", err)

		return
	}

	verdicts := make(map[string]struct{})

	var verdict string

	for _, v := range values {
		decision, ok := v.Get()
		if !ok {
			continue
		}

		verdict = decision.Value.GetOrPanic()
		verdicts[verdict] = struct{}{}
	}

	if len(verdicts) != 1 {
		logger.Error(context.Background(), "learners disagree", "verdicts", len(verdicts))

		return
	}

	fmt.Printf("A consensus has been reached! %s\n", verdict)
}
