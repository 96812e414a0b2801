package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/term"

	"github.com/cbegin/fxmix-go"
)

type effectFlags struct {
	volume float64
	pan    float64
	crunch float64
	delay  time.Duration
	cycles int
	decay  float64
	reverb float64
}

func main() {
	var (
		path       = flag.String("file", "", "audio file to play (wav, aiff, mp3, ogg)")
		out        = flag.String("out", "", "render offline to this WAV file instead of playing")
		sampleRate = flag.Int("sample-rate", 44100, "mixer sample rate")
		stream     = flag.Bool("stream", false, "stream the file as music instead of decoding it up front")
		tail       = flag.Duration("tail", 2*time.Second, "extra time rendered after the source ends")
		verbose    = flag.Bool("v", false, "debug logging")
		fx         effectFlags
	)
	flag.Float64Var(&fx.volume, "volume", 1.0, "master volume")
	flag.Float64Var(&fx.pan, "pan", 0, "stereo balance, -1 (left) .. 1 (right)")
	flag.Float64Var(&fx.crunch, "crunch", 0, "distortion amount 0..1")
	flag.DurationVar(&fx.delay, "delay", 0, "echo spacing, e.g. 250ms")
	flag.IntVar(&fx.cycles, "cycles", 3, "number of echo taps")
	flag.Float64Var(&fx.decay, "decay", 0.5, "echo attenuation per tap 0..1")
	flag.Float64Var(&fx.reverb, "reverb", 0, "reverb decay (currently no effect)")
	flag.Parse()

	if *verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}
	if *path == "" {
		flag.Usage()
		os.Exit(2)
	}
	data, err := os.ReadFile(*path)
	if err != nil {
		log.Fatal(err)
	}

	mixer, err := fxmix.NewMixer(*sampleRate, fxmix.WithBufferSize(50*time.Millisecond))
	if err != nil {
		log.Fatal(err)
	}
	defer mixer.Close()
	applyEffects(mixer, fx)

	if *out != "" {
		if err := renderToFile(mixer, data, *out, *tail); err != nil {
			log.Fatal(err)
		}
		return
	}

	var ctl control
	if *stream {
		ctl, err = newMusicControl(mixer, data)
	} else {
		ctl, err = newSoundControl(mixer, data)
	}
	if err != nil {
		log.Fatal(err)
	}
	if err := mixer.Start(); err != nil {
		log.Fatal(err)
	}
	if err := ctl.toggle(); err != nil {
		log.Fatal(err)
	}

	if !term.IsTerminal(int(os.Stdin.Fd())) {
		time.Sleep(ctl.length() + *tail)
		return
	}
	if err := interact(mixer, ctl, fx); err != nil {
		log.Fatal(err)
	}
}

func applyEffects(m *fxmix.Mixer, fx effectFlags) {
	m.SetVolume(panned(fx.volume, fx.pan))
	m.SetDistortion(fxmix.NewDistortion(float32(fx.crunch)))
	m.SetDelay(m.NewDelay(fx.delay, fx.cycles, float32(fx.decay)))
	m.SetReverb(fxmix.NewReverb(float32(fx.reverb)))
}

func panned(volume, pan float64) fxmix.Volume {
	pan = max(-1, min(1, pan))
	return fxmix.PannedVolume(float32(volume*min(1, 1-pan)), float32(volume*min(1, 1+pan)))
}

func renderToFile(m *fxmix.Mixer, data []byte, path string, tail time.Duration) error {
	sound, err := fxmix.NewSound(data)
	if err != nil {
		return err
	}
	if err := m.PlaySound(sound); err != nil {
		return err
	}
	samples := fxmix.RenderOffline(m, (sound.Duration() + tail).Seconds())
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := fxmix.EncodeWAV(f, samples, m.SampleRate()); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// control abstracts the space-bar action for sounds and music.
type control interface {
	toggle() error
	status() string
	length() time.Duration
}

type soundControl struct {
	mixer *fxmix.Mixer
	sound *fxmix.Sound
}

func newSoundControl(m *fxmix.Mixer, data []byte) (*soundControl, error) {
	s, err := fxmix.NewSound(data)
	if err != nil {
		return nil, err
	}
	return &soundControl{mixer: m, sound: s}, nil
}

func (c *soundControl) toggle() error         { return c.mixer.PlaySound(c.sound) }
func (c *soundControl) status() string        { return fmt.Sprintf("voices: %d", c.mixer.ActiveVoices()) }
func (c *soundControl) length() time.Duration { return c.sound.Duration() }

type musicControl struct {
	music *fxmix.Music
}

func newMusicControl(m *fxmix.Mixer, data []byte) (*musicControl, error) {
	mu, err := m.NewMusic(data)
	if err != nil {
		return nil, err
	}
	return &musicControl{music: mu}, nil
}

func (c *musicControl) toggle() error {
	if c.music.IsPlaying() {
		c.music.Pause()
		return nil
	}
	return c.music.Play()
}

func (c *musicControl) status() string {
	if c.music.IsPlaying() {
		return "playing"
	}
	return "paused"
}

// Streams have no known length up front.
func (c *musicControl) length() time.Duration { return time.Hour }

func interact(m *fxmix.Mixer, ctl control, fx effectFlags) error {
	fd := int(os.Stdin.Fd())
	state, err := term.MakeRaw(fd)
	if err != nil {
		return err
	}
	defer term.Restore(fd, state)

	fmt.Print("space: play/pause  +/-: volume  d: distortion  e: echo  q: quit\r\n")
	echo := fx.delay > 0
	if !echo {
		fx.delay = 250 * time.Millisecond
	}
	buf := make([]byte, 1)
	for {
		if _, err := os.Stdin.Read(buf); err != nil {
			return err
		}
		switch buf[0] {
		case 'q', 27, 3: // q, Esc, Ctrl-C
			return nil
		case ' ':
			if err := ctl.toggle(); err != nil {
				fmt.Printf("%v\r\n", err)
			}
		case '+', '=':
			fx.volume = min(fx.volume+0.1, 2)
			m.SetVolume(panned(fx.volume, fx.pan))
		case '-':
			fx.volume = max(fx.volume-0.1, 0)
			m.SetVolume(panned(fx.volume, fx.pan))
		case 'd':
			if fx.crunch > 0 {
				fx.crunch = 0
			} else {
				fx.crunch = 0.6
			}
			m.SetDistortion(fxmix.NewDistortion(float32(fx.crunch)))
		case 'e':
			echo = !echo
			if echo {
				m.SetDelay(m.NewDelay(fx.delay, fx.cycles, float32(fx.decay)))
			} else {
				m.SetDelay(m.NewDelay(0, 0, 0))
			}
		default:
			continue
		}
		fmt.Printf("%s  %v (+%v buffered)  volume %.1f  crunch %.1f  echo %v\r\n",
			ctl.status(), m.Position().Round(time.Millisecond), m.Latency().Round(time.Millisecond),
			fx.volume, fx.crunch, echo)
	}
}
