package tele

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/juju/errors"
	"github.com/temoto/inkmenu/helpers"
	"github.com/temoto/inkmenu/log2"
	tele_config "github.com/temoto/inkmenu/tele/config"
)

func TopicConnect(clientId string) string   { return fmt.Sprintf("%s/c", clientId) }
func TopicState(clientId string) string     { return fmt.Sprintf("%s/w/ui", clientId) }
func TopicTelemetry(clientId string) string { return fmt.Sprintf("%s/w/1t", clientId) }

var mqttLogOnce sync.Once

type transportMqtt struct {
	log  *log2.Log
	m    mqtt.Client
	mopt *mqtt.ClientOptions
	stop chan struct{}

	networkTimeout time.Duration
	topicConnect   string
	topicState     string
	topicTelemetry string
}

func (self *transportMqtt) Init(ctx context.Context, log *log2.Log, teleConfig tele_config.Config, willPayload []byte) error {
	self.log = log
	mqttLog := log.Clone(log2.LInfo)
	if teleConfig.MqttLogDebug {
		mqttLog.SetLevel(log2.LDebug)
	}
	// paho loggers are package globals
	mqttLogOnce.Do(func() {
		mqtt.ERROR = mqttLog
		mqtt.CRITICAL = mqttLog
		mqtt.WARN = mqttLog
		if teleConfig.MqttLogDebug {
			mqtt.DEBUG = mqttLog
		}
	})

	if _, err := url.ParseRequestURI(teleConfig.MqttBroker); err != nil {
		return errors.Annotatef(err, "tele mqtt_broker=%s", teleConfig.MqttBroker)
	}

	clientId := teleConfig.ClientIdOrDefault()
	self.topicConnect = TopicConnect(clientId)
	self.topicState = TopicState(clientId)
	self.topicTelemetry = TopicTelemetry(clientId)
	self.networkTimeout = helpers.IntSecondDefault(teleConfig.NetworkTimeoutSec, DefaultNetworkTimeout)
	keepAlive := helpers.IntSecondDefault(teleConfig.KeepaliveSec, 60*time.Second)
	pingTimeout := helpers.IntSecondDefault(teleConfig.PingTimeoutSec, 30*time.Second)

	self.mopt = mqtt.NewClientOptions().
		AddBroker(teleConfig.MqttBroker).
		SetBinaryWill(self.topicConnect, willPayload, 1, true).
		SetCleanSession(false).
		SetClientID(clientId).
		SetUsername(teleConfig.MqttUsername).
		SetPassword(teleConfig.MqttPassword).
		SetKeepAlive(keepAlive).
		SetPingTimeout(pingTimeout).
		SetAutoReconnect(true).
		SetMaxReconnectInterval(keepAlive).
		SetOnConnectHandler(self.onConnectHandler).
		SetConnectionLostHandler(self.connectLostHandler)
	if teleConfig.MqttStorePath != "" {
		self.mopt.SetStore(mqtt.NewFileStore(teleConfig.MqttStorePath))
	}
	self.m = mqtt.NewClient(self.mopt)
	self.stop = make(chan struct{})
	go self.connectLoop()
	return nil
}

// paho does not retry initial connect, auto reconnect works only after first success
func (self *transportMqtt) connectLoop() {
	backoff := helpers.Backoff{Min: time.Second, Max: self.networkTimeout, K: 2}
	for {
		token := self.m.Connect()
		ok := token.WaitTimeout(self.networkTimeout) && token.Error() == nil
		if ok {
			return
		}
		self.log.Debugf("mqtt connect err=%v", token.Error())
		if !helpers.SleepStop(backoff.DelayAfter(false), self.stop) {
			return
		}
	}
}

func (self *transportMqtt) Close() {
	close(self.stop)
	if self.m.IsConnected() {
		self.m.Publish(self.topicConnect, 1, true, []byte{0x00}).WaitTimeout(self.networkTimeout)
	}
	self.m.Disconnect(uint(self.networkTimeout / time.Millisecond))
}

func (self *transportMqtt) SendState(payload []byte) bool {
	return self.publish(self.topicState, true, payload)
}

func (self *transportMqtt) SendTelemetry(payload []byte) bool {
	return self.publish(self.topicTelemetry, false, payload)
}

func (self *transportMqtt) publish(topic string, retained bool, payload []byte) bool {
	if !self.m.IsConnected() {
		return false
	}
	token := self.m.Publish(topic, 1, retained, payload)
	if !token.WaitTimeout(self.networkTimeout) {
		self.log.Debugf("mqtt publish topic=%s timeout", topic)
		return false
	}
	if err := token.Error(); err != nil {
		self.log.Debugf("mqtt publish topic=%s err=%v", topic, err)
		return false
	}
	return true
}

func (self *transportMqtt) connectLostHandler(c mqtt.Client, err error) {
	self.log.Infof("mqtt disconnect err=%v", err)
}

func (self *transportMqtt) onConnectHandler(c mqtt.Client) {
	self.log.Infof("mqtt connect")
	c.Publish(self.topicConnect, 1, true, []byte{0x01})
}
