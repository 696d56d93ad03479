package main

import (
	"fmt"
	"log"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var graphOut string

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Print the robot's kinematic tree as graphviz DOT",
	RunE:  runGraph,
}

func init() {
	graphCmd.Flags().StringVarP(&graphOut, "out", "o", "", "write the DOT graph here instead of stdout")
	rootCmd.AddCommand(graphCmd)
}

func runGraph(cmd *cobra.Command, args []string) error {
	desc, _, err := loadRobot(cmd.Context())
	if err != nil {
		return err
	}
	dot := desc.ToDot()
	if graphOut == "" {
		fmt.Print(dot)
		return nil
	}
	if err := os.WriteFile(graphOut, []byte(dot), 0644); err != nil {
		return errors.WithStack(err)
	}
	log.Printf("wrote %s", graphOut)
	return nil
}
