package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/roach88/bundlekeys/internal/engine"
)

const (
	revealQuestion = "Would you like to redeem as-yet unrevealed store keys on the issuer?" +
		" (Revealing keys removes your ability to generate gift links for them)"
	includeRevealedQuestion = "Would you like to attempt redeeming already-revealed keys as well?"
)

// promptYesNo asks question until the answer is y or n.
func promptYesNo(in *bufio.Reader, out io.Writer, question string) (bool, error) {
	for {
		fmt.Fprintf(out, "%s [y/n] ", question)
		line, err := in.ReadString('\n')
		ans := strings.ToLower(strings.TrimSpace(line))
		switch ans {
		case "y":
			return true, nil
		case "n":
			return false, nil
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return false, fmt.Errorf("no answer: %w", io.ErrUnexpectedEOF)
			}
			return false, err
		}
		fmt.Fprintf(out, "%s is not a valid answer\n", ans)
	}
}

// selectionPrompt asks for whatever part of the selection the flags left
// open. Without --reveal only already-revealed keys are attempted.
type selectionPrompt struct {
	in  *bufio.Reader
	out io.Writer

	revealSet          bool
	includeRevealedSet bool
}

func (p selectionPrompt) resolve(sel engine.Selection) (engine.Selection, error) {
	if !p.revealSet {
		ok, err := promptYesNo(p.in, p.out, revealQuestion)
		if err != nil {
			return sel, err
		}
		sel.Reveal = ok
	}
	if sel.Reveal && !p.includeRevealedSet {
		ok, err := promptYesNo(p.in, p.out, includeRevealedQuestion)
		if err != nil {
			return sel, err
		}
		sel.IncludeRevealed = ok
	}
	return sel, nil
}
