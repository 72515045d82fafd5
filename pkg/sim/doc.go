// Package sim provides simulated hardware for running nodes without a
// device: PWM outputs, a gimbal body carrying the IMU and barometer, the
// identity store and the wireless network.
package sim
