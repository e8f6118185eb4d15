// Package tele delivers menu telemetry over MQTT.
package tele

import (
	"context"
	"sync"
	"time"

	"github.com/golang/protobuf/proto"
	structpb "github.com/golang/protobuf/ptypes/struct"
	"github.com/juju/errors"
	"github.com/temoto/inkmenu/helpers"
	"github.com/temoto/inkmenu/internal/types"
	"github.com/temoto/inkmenu/log2"
	tele_api "github.com/temoto/inkmenu/tele"
	tele_config "github.com/temoto/inkmenu/tele/config"
	"github.com/temoto/spq"
)

const DefaultNetworkTimeout = 30 * time.Second

const logMsgDisabled = "tele disabled"

// Tele contract:
// - Init() fails only with invalid config, network issues ignored
// - Error/Peripheral/Report block at most for queue write
//   network may be slow or absent, messages will be delivered in background
// - telemetry messages delivered at least once
// - UI state messages may be lost, broker retains latest
type tele struct { //nolint:maligned
	config    tele_config.Config
	log       *log2.Log
	transport Transporter
	q         *spq.Queue
	backoff   helpers.Backoff
	stopCh    chan struct{}
	doneCh    chan struct{}
	stat      tele_api.Stat

	mu      sync.Mutex
	state   tele_api.UIState
	enabled bool
}

func New() tele_api.Teler {
	return &tele{}
}
func NewWithTransporter(trans Transporter) tele_api.Teler {
	return &tele{transport: trans}
}

func (self *tele) Init(ctx context.Context, log *log2.Log, teleConfig tele_config.Config) error {
	self.config = teleConfig
	self.log = log
	if self.config.LogDebug {
		self.log.SetLevel(log2.LDebug)
	}
	if !self.config.Enabled {
		return nil
	}

	persist := self.config.PersistPath
	if persist == "" {
		persist = spq.OnlyForTesting
	}
	var err error
	self.q, err = spq.Open(persist)
	if err != nil {
		return errors.Annotate(err, "tele queue")
	}

	// test code sets .transport
	if self.transport == nil { // production path
		self.transport = &transportMqtt{}
	}
	if err := self.transport.Init(ctx, log, teleConfig, []byte{0x00}); err != nil {
		self.q.Close()
		return errors.Annotate(err, "tele transport")
	}

	self.backoff = helpers.Backoff{
		Min: 100 * time.Millisecond,
		Max: helpers.IntSecondDefault(self.config.NetworkTimeoutSec, DefaultNetworkTimeout),
		K:   2,
	}
	self.stopCh = make(chan struct{})
	self.doneCh = make(chan struct{})
	self.mu.Lock()
	self.enabled = true
	self.mu.Unlock()
	go self.qworker()
	return nil
}

func (self *tele) Close() {
	self.mu.Lock()
	enabled := self.enabled
	self.enabled = false
	self.mu.Unlock()
	if !enabled {
		return
	}
	close(self.stopCh)
	self.q.Close()
	<-self.doneCh
	self.transport.Close()
}

func (self *tele) isEnabled() bool {
	self.mu.Lock()
	defer self.mu.Unlock()
	return self.enabled
}

func (self *tele) UIState(s tele_api.UIState) {
	self.mu.Lock()
	same := s == self.state
	self.state = s
	self.mu.Unlock()
	if same {
		return
	}
	if !self.isEnabled() {
		self.log.Debugf("%s ui state=%#v", logMsgDisabled, s)
		return
	}
	payload, err := proto.Marshal(s.Struct())
	if err != nil {
		self.log.Infof("CRITICAL tele state Marshal err=%v", err)
		return
	}
	if !self.transport.SendState(payload) {
		self.log.Debugf("tele state not sent")
	}
}

func (self *tele) Peripheral(cmd types.PeripheralCommand) {
	self.pushTelemetry(tele_api.KindPeripheral, map[string]*structpb.Value{
		tele_api.KindPeripheral: tele_api.String(cmd.String()),
	})
}

// Error must not log through log.Error, that would loop back here.
func (self *tele) Error(err error) {
	if err == nil {
		return
	}
	self.pushTelemetry(tele_api.KindError, map[string]*structpb.Value{
		tele_api.KindError: tele_api.String(err.Error()),
	})
}

func (self *tele) StatModify(fun func(s *tele_api.Stat)) {
	self.stat.Lock()
	fun(&self.stat)
	self.stat.Unlock()
}

func (self *tele) Report(ctx context.Context) error {
	if !self.isEnabled() {
		return nil
	}
	self.stat.Lock()
	stat := self.stat.Locked_Struct()
	self.stat.Locked_Reset()
	self.stat.Unlock()
	self.mu.Lock()
	state := self.state.Struct()
	self.mu.Unlock()
	return self.push(tele_api.KindReport, map[string]*structpb.Value{
		"stat": stat,
		"ui":   &structpb.Value{Kind: &structpb.Value_StructValue{StructValue: state}},
	})
}

func (self *tele) pushTelemetry(kind string, fields map[string]*structpb.Value) {
	if !self.isEnabled() {
		self.log.Debugf("%s %s", logMsgDisabled, kind)
		return
	}
	if err := self.push(kind, fields); err != nil {
		self.log.Infof("CRITICAL tele push kind=%s err=%v", kind, err)
	}
}

func (self *tele) push(kind string, fields map[string]*structpb.Value) error {
	fields["kind"] = tele_api.String(kind)
	fields["client_id"] = tele_api.String(self.config.ClientIdOrDefault())
	fields["time"] = tele_api.Number(float64(time.Now().UnixNano()) / float64(time.Second))
	b, err := proto.Marshal(&structpb.Struct{Fields: fields})
	if err != nil {
		return errors.Annotate(err, "tele Marshal")
	}
	return self.q.Push(b)
}

func (self *tele) qworker() {
	defer close(self.doneCh)
	for {
		box, err := self.q.Peek()
		switch err {
		case nil:
			// success path
			b := box.Bytes()
			sent := self.transport.SendTelemetry(b)
			if sent {
				err = self.q.Delete(box)
			} else {
				err = self.q.DeletePush(box)
			}
			if err != nil && err != spq.ErrClosed {
				self.log.Infof("CRITICAL tele queue sent=%t err=%v", sent, err)
			}
			if sent {
				self.backoff.Reset()
			} else if !helpers.SleepStop(self.backoff.DelayAfter(false), self.stopCh) {
				return
			}

		case spq.ErrClosed:
			select {
			case <-self.stopCh: // success path
			default:
				self.log.Infof("CRITICAL tele spq closed unexpectedly")
			}
			return

		default:
			self.log.Infof("CRITICAL tele spq err=%v", err)
			if !helpers.SleepStop(self.backoff.DelayAfter(false), self.stopCh) {
				return
			}
		}
	}
}
