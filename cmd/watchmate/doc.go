// Command watchmate compares Letterboxd watchlists with friends.
package main
