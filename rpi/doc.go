// Package rpi binds the drive loop to Linux GPIO on a Raspberry Pi. Inputs and motor outputs use the GPIO
// character device. The optional steering servo uses the hardware PWM peripheral.
package rpi
