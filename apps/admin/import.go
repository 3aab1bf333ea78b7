package main

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
)

func (cli *commandLine) importAssignments(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "opening import file")
	}
	defer f.Close()

	created, err := cli.asgSvc.Import(cli.ctx(), f, cli.validate)
	if err != nil {
		return err
	}
	for _, asg := range created {
		fmt.Printf("  #%d %s (%d questions)\n", asg.ID, asg.Title, len(asg.Questions))
	}
	fmt.Printf("%d assignments imported\n", len(created))
	return nil
}
