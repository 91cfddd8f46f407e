// Package glm talks to a group of Genelec SAM studio monitors through the
// GLM USB adapter: discovery, broadcast volume, mute, power and per-monitor
// commands, with a layered safety-clamp policy between every caller and the
// hardware. The USB-HID wire protocol itself lives behind the Driver
// interface.
package glm
