// Package namecolor changes the color of the local player's name in Monster
// Hunter: World.
//
// The plugin hooks player.ClonePlayerShortInfo, which fills in the short
// player info the game draws names from. After the original function runs,
// the color byte of the result is replaced when the player it describes is
// the one playing on this machine. The color comes from a one line config
// file, either a number or a color name:
//
//	green
//
// Addresses are found by scanning the game executable for the signatures in
// the address catalog, so the plugin survives game updates that only move
// code around.
package namecolor
