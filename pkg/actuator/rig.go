package actuator

import (
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/fleetlink/pkg/framework"
	"github.com/robotalks/fleetlink/pkg/link/packet"
)

// Default outputs of an agent.
var (
	DefaultXServo = MotorConfig{Pin: 18, MinPulseUs: 1100, MaxPulseUs: 1900, NeutralPulseUs: 1500, Range: 180, Resolution: 4096}
	DefaultYServo = MotorConfig{Pin: 19, MinPulseUs: 1100, MaxPulseUs: 1900, NeutralPulseUs: 1500, Range: 180, Resolution: 4096}
	DefaultESC1   = MotorConfig{Pin: 32, MinPulseUs: 1000, MaxPulseUs: 2000, NeutralPulseUs: 1500, Range: 100, Resolution: 4096}
	DefaultESC2   = MotorConfig{Pin: 33, MinPulseUs: 1000, MaxPulseUs: 2000, NeutralPulseUs: 1500, Range: 100, Resolution: 4096}
)

// DefaultESCLimit is the throttle limit in percent.
const DefaultESCLimit = 95

// PatternAmplitude is the swing of the test pattern in degrees.
const PatternAmplitude = 60

// Rig is the set of outputs on an agent.
type Rig struct {
	XServo *Servo
	YServo *Servo
	ESC1   *ESC
	ESC2   *ESC
}

// NewRig creates the default rig on pwm.
func NewRig(pwm PWM) *Rig {
	return &Rig{
		XServo: NewServo(DefaultXServo, 0, pwm),
		YServo: NewServo(DefaultYServo, 0, pwm),
		ESC1:   NewESC(DefaultESC1, DefaultESCLimit, pwm),
		ESC2:   NewESC(DefaultESC2, DefaultESCLimit, pwm),
	}
}

// Init attaches all outputs. An output failing to attach stays idle and
// the error is logged.
func (r *Rig) Init() {
	for name, init := range map[string]func() error{
		"x servo": r.XServo.Init,
		"y servo": r.YServo.Init,
		"esc 1":   r.ESC1.Init,
		"esc 2":   r.ESC2.Init,
	} {
		if err := init(); err != nil {
			glog.Errorf("%s disabled: %v", name, err)
		}
	}
}

// ArmServos arms or disarms both servos.
func (r *Rig) ArmServos(armed bool) error {
	var errs framework.AggregatedError
	errs.Add(r.XServo.SetArmed(armed), r.YServo.SetArmed(armed))
	return errs.Aggregate()
}

// ArmESCs arms or disarms both ESCs.
func (r *Rig) ArmESCs(armed bool) error {
	var errs framework.AggregatedError
	errs.Add(r.ESC1.SetArmed(armed), r.ESC2.SetArmed(armed))
	return errs.Aggregate()
}

// ApplyCtrl drives the outputs from a control packet.
func (r *Rig) ApplyCtrl(ctrl *packet.CtrlPacket) error {
	var errs framework.AggregatedError
	errs.Add(
		r.XServo.Write(float64(ctrl.Servo[0])),
		r.YServo.Write(float64(ctrl.Servo[1])),
		r.ESC1.Write(float64(ctrl.Throttle[0])),
		r.ESC2.Write(float64(ctrl.Throttle[1])),
	)
	return errs.Aggregate()
}

// ApplyPattern sweeps the servos around a circle, one radian per second.
func (r *Rig) ApplyPattern(elapsed time.Duration) error {
	a := Rad(elapsed.Seconds())
	var errs framework.AggregatedError
	errs.Add(
		r.XServo.Write(PatternAmplitude*a.Sin()),
		r.YServo.Write(PatternAmplitude*a.Cos()),
	)
	return errs.Aggregate()
}

// Neutral returns every output to neutral.
func (r *Rig) Neutral() error {
	return r.ApplyCtrl(&packet.CtrlPacket{})
}
