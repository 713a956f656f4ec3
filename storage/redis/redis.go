// Package redisrepos backs the repositories with a Redis keyspace:
// one hash per (record family, day/date) holding slot-keyed values, plus id
// sets for the class and teacher registries.
package redisrepos

import (
	"context"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"

	"github.com/darasahq/darasa/core"
)

const (
	classesKey        = "classes"        // Set: all class ids
	classInfoPrefix   = "class:"         // Hash: class:{id} -> class details
	teachersKey       = "teachers"       // Set: all teacher ids
	teacherInfoPrefix = "teacher:"       // Hash: teacher:{id} -> teacher details
	basePrefix        = "base:"          // Hash: base:{day} -> slotKey => BaseEntry JSON
	overridePrefix    = "override:"      // Hash: override:{date} -> slotKey => Override JSON
	overrideDatesKey  = "override_dates" // Set: dates with at least one override (cascade index)
	attendancePrefix  = "attendance:"    // Hash: attendance:{date} -> teacherID => status
)

func Open(conf *core.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     conf.Redis.Addr,
		Password: conf.Redis.Password,
		DB:       conf.Redis.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), conf.Store.Timeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, errors.Wrap(core.ErrStoreUnavailable, err.Error())
	}
	return client, nil
}

func classInfoKey(id string) string    { return classInfoPrefix + id }
func teacherInfoKey(id string) string  { return teacherInfoPrefix + id }
func baseKey(day string) string        { return basePrefix + day }
func overrideKey(date string) string   { return overridePrefix + date }
func attendanceKey(date string) string { return attendancePrefix + date }
