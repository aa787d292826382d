// Package app provides the application service layer.
//
// Every chat use case lives here: rooms, room and private messages, friends, voice
// rooms, accounts and image attachments. Methods take the caller's domain.Identity,
// enforce business rules, persist through domain repositories and then push live
// notifications. Persistence always happens before notification and a failed
// notification never fails the use case.
package app
