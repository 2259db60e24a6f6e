// Package control provides the biped's joint-space controllers.
//
// Controllers implement [dynamo.Controller] so the simulator can drive them,
// and the PD controller also runs directly against the host contract in
// package robot:
//
//   - [JointController]: per-joint PD with mirrored left/right gains
//   - [PID]: a JointController with integral action
//   - [Passive]: zero torque on every joint
//   - [Disturbance]: adds a manually set torque on top of another controller
//
// # Usage
//
//	pd := control.NewJointController(control.DefaultGains())
//	pd.SetLegTargets(robot.Left, q)
//	pd.Step(dt, sensor, actuator) // once per host step
//
// Gains are fixed once a controller is built; a retune builds a new one from
// a scaled [GainTable].
package control
