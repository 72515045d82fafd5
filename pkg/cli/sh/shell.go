// Package sh provides the interactive operator console of a fleet.
package sh

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/fleetlink/pkg/bridge/mqtt"
	"github.com/robotalks/fleetlink/pkg/env"
	fx "github.com/robotalks/fleetlink/pkg/framework"
)

// Shell provides ishell backed interactive shell.
type Shell struct {
	Interactive bool
	OutputJSON  bool
	BrokerURL   string

	Shell *ishell.Shell
	// Target is the selected coordinator.
	Target *mqtt.NodeRef

	queue     *mqtt.Queue
	queueLock sync.Mutex
}

const (
	shellKey         = "$shell"
	unselectedPrompt = "[none] > "
)

var (
	// flags

	evalOnly   bool
	outputJSON bool
	brokerURL  string
	target     string

	// commands
	commands = []*ishell.Cmd{
		&DiscoverCmd,
		&SelectCmd,
		&UnselectCmd,
	}
)

func init() {
	brokerURL = env.Default().MQTTBrokerURL
	if brokerURL == "" {
		brokerURL = mqtt.DefaultBrokerURL
	}
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
	flag.StringVar(&brokerURL, "mqtt", brokerURL, "MQTT broker URL.")
	flag.StringVar(&target, "target", target, "Coordinator ID to select.")
}

// AddCmds is used by other commands providers during init func.
func AddCmds(cmds ...*ishell.Cmd) {
	commands = append(commands, cmds...)
}

// New creates a new shell.
func New(brokerURL string) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,
		BrokerURL:   brokerURL,

		Shell: ishell.New(),
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(unselectedPrompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// MustBeSelected wraps command func requires a selected coordinator.
func MustBeSelected(fn func(c *ishell.Context)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		if ShellFrom(c).Target == nil {
			c.Err(fmt.Errorf("no coordinator selected"))
			return
		}
		fn(c)
	}
}

// FormatInfo prints NodeInfo into friendly string for display.
func FormatInfo(info mqtt.NodeInfo) string {
	var w bytes.Buffer
	fmt.Fprintf(&w, "%s", info.Ref.Name())
	if info.Meta.Description != "" {
		fmt.Fprintf(&w, ": %s", info.Meta.Description)
	}
	if info.Meta.Address != "" {
		fmt.Fprintf(&w, " @%s", info.Meta.Address)
	}
	if info.Meta.AgentID >= 0 {
		fmt.Fprintf(&w, " (agent %d)", info.Meta.AgentID)
	}
	return w.String()
}

// Queue returns the connected queue, connecting on first use.
func (s *Shell) Queue() (*mqtt.Queue, error) {
	s.queueLock.Lock()
	defer s.queueLock.Unlock()
	if s.queue != nil {
		return s.queue, nil
	}
	q, err := mqtt.NewQueueFromURL(s.BrokerURL)
	if err != nil {
		return nil, err
	}
	if err := q.ConnectWait(mqtt.DefaultConnectTimeout); err != nil {
		return nil, err
	}
	s.queue = q
	return q, nil
}

// Publish sends msg to the kind topic of the selected coordinator.
func Publish(c *ishell.Context, kind string, msg fx.Message) error {
	s := ShellFrom(c)
	if s.Target == nil {
		err := fmt.Errorf("no coordinator selected")
		c.Err(err)
		return err
	}
	q, err := s.Queue()
	if err != nil {
		c.Err(err)
		return err
	}
	token, err := q.PubMsg(s.Target.Topic(kind), msg)
	if err != nil {
		c.Err(err)
		return err
	}
	if !token.WaitTimeout(time.Second) {
		c.Err(mqtt.ErrTimeout)
		return mqtt.ErrTimeout
	}
	if err = token.Error(); err != nil {
		c.Err(err)
		return err
	}
	if !s.OutputJSON {
		c.Println("OK")
	}
	return nil
}

// DiscoverNodes discovers nodes.
func (s *Shell) DiscoverNodes(filter func(mqtt.NodeInfo) bool) ([]mqtt.NodeInfo, error) {
	connector, err := mqtt.NewConnector(s.BrokerURL)
	if err != nil {
		return nil, err
	}
	infoList, err := connector.Discover(context.TODO())
	if err != nil {
		return nil, err
	}
	return FilterNodes(infoList, filter), nil
}

// FilterNodes keeps the nodes accepted by filter.
func FilterNodes(infoList []mqtt.NodeInfo, filter func(mqtt.NodeInfo) bool) []mqtt.NodeInfo {
	if filter == nil {
		return infoList
	}
	items := make([]mqtt.NodeInfo, 0, len(infoList))
	for _, info := range infoList {
		if filter(info) {
			items = append(items, info)
		}
	}
	return items
}

// IsCoordinator filters coordinators.
func IsCoordinator(info mqtt.NodeInfo) bool {
	return info.Ref.Role == "coordinator"
}

// SelectCoordinator discovers coordinators and asks for a choice.
func (s *Shell) SelectCoordinator() (*mqtt.NodeInfo, error) {
	infoList, err := s.DiscoverNodes(IsCoordinator)
	if err != nil {
		return nil, err
	}
	if len(infoList) == 0 {
		return nil, nil
	}
	var index int
	if len(infoList) > 1 {
		if !s.Interactive {
			return nil, fmt.Errorf("more than 1 coordinators discovered in non-interactive mode")
		}
		items := make([]string, len(infoList))
		for n, info := range infoList {
			items[n] = FormatInfo(info)
		}
		index = s.Shell.MultiChoice(items, "Which one to select?")
	}
	return &infoList[index], nil
}

// Select sets the target coordinator.
func (s *Shell) Select(ref mqtt.NodeRef) {
	s.Target = &ref
	s.Shell.SetPrompt(fmt.Sprintf("%s > ", ref.Name()))
}

// Unselect clears the target coordinator.
func (s *Shell) Unselect() {
	s.Target = nil
	s.Shell.SetPrompt(unselectedPrompt)
}

// Close disconnects from the broker.
func (s *Shell) Close() error {
	s.queueLock.Lock()
	defer s.queueLock.Unlock()
	if s.queue == nil {
		return nil
	}
	err := s.queue.Close()
	s.queue = nil
	return err
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	defer s.Close()
	if target != "" {
		s.Select(mqtt.NodeRef{Role: "coordinator", ID: target})
	}

	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			log.Fatalln(err)
		}
		return
	}
	if s.Interactive {
		s.Shell.Run()
		return
	}
	log.Fatalln("command expected")
}

var (
	// DiscoverCmd discovers nodes.
	DiscoverCmd = ishell.Cmd{
		Name:    "discover",
		Aliases: []string{"list", "l"},
		Help:    "[ROLE]",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			var filter func(mqtt.NodeInfo) bool
			if len(c.Args) > 0 {
				filter = func(info mqtt.NodeInfo) bool {
					return strings.EqualFold(info.Ref.Role, c.Args[0])
				}
			}
			infoList, err := s.DiscoverNodes(filter)
			if err != nil {
				c.Err(err)
				return
			}
			if s.OutputJSON {
				if len(infoList) == 0 {
					// in case infoList is nil, make it empty slice.
					infoList = []mqtt.NodeInfo{}
				}
				out, err := json.Marshal(infoList)
				if err != nil {
					c.Err(err)
					return
				}
				c.Println(string(out))
				return
			}
			if len(infoList) == 0 {
				c.Println("No nodes found")
				return
			}
			for _, info := range infoList {
				c.Println(FormatInfo(info))
			}
		},
	}

	// SelectCmd selects a coordinator.
	SelectCmd = ishell.Cmd{
		Name:    "select",
		Aliases: []string{"s"},
		Help:    "[ID]",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			if len(c.Args) > 0 {
				s.Select(mqtt.NodeRef{Role: "coordinator", ID: c.Args[0]})
				return
			}
			info, err := s.SelectCoordinator()
			if err != nil {
				c.Err(err)
				return
			}
			if info == nil {
				c.Err(fmt.Errorf("no coordinator discovered"))
				return
			}
			s.Select(info.Ref)
		},
	}

	// UnselectCmd clears the selection.
	UnselectCmd = ishell.Cmd{
		Name:    "unselect",
		Aliases: []string{"u"},
		Help:    "",
		Func: func(c *ishell.Context) {
			ShellFrom(c).Unselect()
		},
	}
)

// Main is a helper to provide a single call in main.
func Main() {
	flag.Parse()
	New(brokerURL).Run(flag.Args()...)
}
