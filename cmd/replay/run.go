package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/progate-hackathon-strawberry-flavor/GITRIS-core/internal/config"
	"github.com/progate-hackathon-strawberry-flavor/GITRIS-core/internal/replay"
)

var (
	seedFlag   int64
	eventsFlag bool
)

var warn = color.New(color.FgYellow, color.Bold).SprintFunc()
var emph = color.New(color.FgBlue, color.Bold).SprintFunc()

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().Int64Var(&seedFlag, "seed", 0, "override the seed stored in the script")
	runCmd.Flags().BoolVar(&eventsFlag, "events", false, "print every tick in which something happened")
}

var runCmd = &cobra.Command{
	Use:   "run <script.json>",
	Short: "Replay an input script and print a summary",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		script, err := replay.LoadFile(args[0])
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("seed") {
			script.Seed = seedFlag
		}

		// ルールは環境変数（BOARD_WIDTH など）で変えられる
		cfg, err := config.FromEnv(os.Getenv)
		if err != nil {
			return err
		}

		sum := replay.Run(script, cfg.Game)
		if eventsFlag {
			printEvents(sum)
		}
		printSummary(sum)
		return nil
	},
}

func printSummary(sum replay.Summary) {
	result := emph("alive")
	if sum.GameOver {
		result = warn("GAME OVER")
	}
	printTable([]string{"seed", "ticks", "elapsed", "pieces", "lines", "points", "result"}, [][]string{{
		strconv.FormatInt(sum.Seed, 10),
		humanize.Comma(int64(sum.Ticks)),
		sum.Elapsed.String(),
		humanize.Comma(int64(sum.PiecesPlaced)),
		humanize.Comma(int64(sum.LinesCleared)),
		humanize.Comma(int64(sum.Points)),
		result,
	}})
}

func printEvents(sum replay.Summary) {
	data := make([][]string, 0, len(sum.Events))
	for _, ev := range sum.Events {
		data = append(data, []string{
			strconv.Itoa(ev.Tick),
			ev.At.String(),
			yesNo(ev.Result.FigurePlaced),
			strconv.Itoa(ev.Result.LinesCleared),
			fmt.Sprintf("+%d", ev.Result.PointsGained),
			yesNo(ev.Result.GameOver),
		})
	}
	printTable([]string{"tick", "at", "placed", "lines", "points", "game over"}, data)
	fmt.Println()
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return ""
}

func printTable(header []string, data [][]string) {
	table := tablewriter.NewWriter(os.Stdout)

	table.SetHeader(header)
	table.SetHeaderLine(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(true)

	table.SetBorder(false)
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetColumnSeparator("  ")
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("     ")

	table.AppendBulk(data)

	table.Render()
}
