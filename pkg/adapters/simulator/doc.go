// Package simulator provides an in-process ports.Engine that records commands and
// lets callers inject events. With auto-respond enabled it also answers commands the
// way a device engine would, which is enough to drive whole workflows from a script.
package simulator
