package replay

import (
	"bufio"
	"io"
	"os"
	"time"

	"kwpdash/uart"
)

// Flags mirrors teacher's ReplayFlags, generalized from CAN-frame playback
// to a raw K-line byte capture.
type Flags struct {
	Path       string
	Speed      float64 // 0 = as fast as possible
	Loop       bool
	SkipFrames int
}

// Player replays a captured raw K-line byte log into a uart.Simulated
// transport, pacing FromECU bursts by their recorded millisecond deltas.
// FromHost frames are skipped: the live Session under test performs its own
// writes, which need not match the original capture byte-for-byte.
type Player struct {
	flags Flags
}

// NewPlayer returns a Player for flags.
func NewPlayer(flags Flags) *Player { return &Player{flags: flags} }

// Run feeds dst until EOF, looping if flags.Loop is set.
func (p *Player) Run(dst *uart.Simulated) error {
	for {
		if err := p.playOnce(dst); err != nil {
			return err
		}
		if !p.flags.Loop {
			return nil
		}
	}
}

func (p *Player) playOnce(dst *uart.Simulated) error {
	file, err := os.Open(p.flags.Path)
	if err != nil {
		return err
	}
	defer file.Close()

	reader := bufio.NewReaderSize(file, 1<<16)

	var (
		first  = true
		prevMS int64
	)
	index := 0
	for {
		frame, err := readOneFrame(reader)
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}

		if index < p.flags.SkipFrames {
			index++
			continue
		}
		index++

		if frame.Dir != FromECU {
			continue
		}

		if first {
			first = false
			prevMS = int64(frame.Millis)
		} else if p.flags.Speed > 0 {
			delta := time.Duration(int64(frame.Millis)-prevMS) * time.Millisecond
			if delta > 0 {
				time.Sleep(time.Duration(float64(delta) / p.flags.Speed))
			}
			prevMS = int64(frame.Millis)
		}

		dst.Feed(frame.Data...)
	}
}
