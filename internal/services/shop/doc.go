// Package shop implements purchase fulfillment against the live game server.
//
// It keeps the exactly-once delivery transaction, the RCON presence check,
// and the item grant isolated from the website layer so the web surface can
// stay a thin serialization boundary.
package shop
