package main

import (
	"flag"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/cheggaaa/pb"
	"github.com/pkg/errors"
	"github.com/ttacon/chalk"

	"github.com/mmporong/CatRace/internal/config"
	"github.com/mmporong/CatRace/internal/shared/logger"
	"github.com/mmporong/CatRace/internal/simulation"
	"github.com/mmporong/CatRace/internal/stats"
)

type options struct {
	configPath string
	laps       int
	dt         float64
	seed       int64
	maxSeconds float64
	quiet      bool
	recordPath string
}

func main() {
	var o options
	flag.StringVar(&o.configPath, "config", "", "race file (JSON); empty runs the built-in oval")
	flag.IntVar(&o.laps, "laps", 0, "override the number of laps")
	flag.Float64Var(&o.dt, "dt", 1.0/60, "simulation step in seconds")
	flag.Int64Var(&o.seed, "seed", 0, "override the race seed")
	flag.Float64Var(&o.maxSeconds, "max-seconds", 900, "give up after this much simulated time")
	flag.BoolVar(&o.quiet, "quiet", false, "print only the final standings")
	flag.StringVar(&o.recordPath, "record", "", "save the winner's stats to this file")
	flag.Parse()

	if err := run(o, os.Stdout); err != nil {
		logger.New("racesim").Fatalf("%v", err)
	}
}

func run(o options, out io.Writer) error {
	if o.dt <= 0 {
		return errors.Errorf("dt must be positive, got %f", o.dt)
	}

	rf := config.Default()
	if o.configPath != "" {
		loaded, err := config.Load(o.configPath)
		if err != nil {
			return err
		}
		rf = loaded
	}
	if o.laps > 0 {
		rf.TotalLaps = o.laps
	}
	if o.seed != 0 {
		rf.Seed = o.seed
	}

	log := logger.Discard()
	if !o.quiet {
		log = logger.NewTo(out, "racesim")
	}
	race, err := rf.NewRace(stats.DefaultCatalog(), log)
	if err != nil {
		return errors.Wrap(err, "build race")
	}

	names := make(map[string]string)
	for _, id := range race.AgentIDs() {
		names[id] = race.Agent(id).Name
	}

	var bar *pb.ProgressBar
	if !o.quiet {
		bar = pb.New(100)
		bar.SetWidth(80)
		bar.Output = out
		bar.Prefix("leader ")
		bar.Start()
	}

	race.Subscribe(func(e simulation.Event) {
		if o.quiet {
			return
		}
		switch e.Kind {
		case simulation.EventCountdownTick:
			if e.Seconds == 0 {
				fmt.Fprintln(out, chalk.Green.Color("GO!"))
			} else {
				fmt.Fprintf(out, "%d...\n", e.Seconds)
			}
		case simulation.EventLapCompleted:
			fmt.Fprintf(out, "%s lap %d done\n", chalk.Cyan.Color(names[e.AgentID]), e.Lap)
		case simulation.EventAgentExhausted:
			fmt.Fprintf(out, "%s is exhausted\n", chalk.Yellow.Color(names[e.AgentID]))
		case simulation.EventAgentFinished:
			fmt.Fprintf(out, "%s finished\n", chalk.Magenta.Color(names[e.AgentID]))
		case simulation.EventRankingUpdated:
			if bar != nil && len(e.Standings) > 0 {
				bar.Set(int(math.Round(e.Standings[0].TotalProgress * 100)))
			}
		}
	})

	race.StartCountdown()
	elapsed := 0.0
	for race.State() != simulation.Finished && elapsed < o.maxSeconds {
		race.Tick(o.dt)
		elapsed += o.dt
	}
	if bar != nil {
		bar.Finish()
	}

	standings := race.Standings()
	printStandings(out, standings, race.State() == simulation.Finished)

	if o.recordPath != "" && len(standings) > 0 {
		if err := saveWinner(o.recordPath, race.Agent(standings[0].AgentID)); err != nil {
			return err
		}
	}
	race.Close()
	return nil
}

func printStandings(out io.Writer, standings []simulation.Progress, finished bool) {
	title := "Standings"
	if !finished {
		title += " (race did not finish)"
	}
	fmt.Fprintln(out, chalk.Bold.TextStyle(title))
	fmt.Fprintf(out, "%-4s %-14s %-5s %-9s %-9s\n", "#", "cat", "lap", "progress", "time")
	for _, p := range standings {
		line := fmt.Sprintf("%-4d %-14s %-5d %-9.1f %-9.2f", p.Rank, p.Name, p.Lap, p.TotalProgress*100, p.TotalTime)
		if p.Finished && p.Rank == 1 {
			line = chalk.Green.Color(line)
		}
		fmt.Fprintln(out, line)
	}
}

func saveWinner(path string, a *simulation.Agent) error {
	if a == nil {
		return errors.New("winner not found")
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create record %s", path)
	}
	defer f.Close()
	return stats.SaveRecord(f, stats.NewRecord(a.Name, a.Preset, a.Template))
}
